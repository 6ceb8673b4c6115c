package cli

import (
	"approachlog/internal/models"
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // operation failed (backup unreadable, record not found)
	ExitCommandError = 2 // bad config, store unavailable
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer renders command results as text or indented JSON.
type printer struct {
	format string
	w      io.Writer
}

func (p *printer) json(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

func (p *printer) records(records []models.ApproachRecord) error {
	if p.format == "json" {
		if records == nil {
			records = []models.ApproachRecord{}
		}
		return p.json(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(p.w, "no approaches")
		return nil
	}
	for i := range records {
		p.recordLine(&records[i])
	}
	return nil
}

func (p *printer) recordLine(r *models.ApproachRecord) {
	line := []string{r.ID, r.Date, r.Name}
	if r.RG != "" {
		line = append(line, "rg:"+r.RG)
	}
	if r.Location != "" {
		line = append(line, r.Location)
	}
	if n := len(r.People) - 1; n > 0 {
		line = append(line, fmt.Sprintf("+%d", n))
	}
	fmt.Fprintln(p.w, strings.Join(line, "\t"))
}

func (p *printer) record(r *models.ApproachRecord) error {
	if p.format == "json" {
		return p.json(r)
	}
	fmt.Fprintf(p.w, "id:           %s\n", r.ID)
	fmt.Fprintf(p.w, "date:         %s\n", r.Date)
	fmt.Fprintf(p.w, "location:     %s\n", r.Location)
	if r.Address != "" {
		fmt.Fprintf(p.w, "address:      %s\n", r.Address)
	}
	if r.Observations != "" {
		fmt.Fprintf(p.w, "observations: %s\n", r.Observations)
	}
	for i := range r.People {
		fmt.Fprint(p.w, "person:       ")
		p.personLine(&r.People[i])
	}
	return nil
}

func (p *printer) personLine(person *models.PersonEntry) {
	line := []string{person.ID, person.Name}
	if person.RG != "" {
		line = append(line, "rg:"+person.RG)
	}
	if person.CPF != "" {
		line = append(line, "cpf:"+person.CPF)
	}
	if person.MotherName != "" {
		line = append(line, "mother:"+person.MotherName)
	}
	fmt.Fprintln(p.w, strings.Join(line, "\t"))
}

func (p *printer) people(people []models.PersonEntry) error {
	if p.format == "json" {
		if people == nil {
			people = []models.PersonEntry{}
		}
		return p.json(people)
	}
	if len(people) == 0 {
		fmt.Fprintln(p.w, "no people")
		return nil
	}
	for i := range people {
		p.personLine(&people[i])
	}
	return nil
}

func (p *printer) message(v any, format string, args ...any) error {
	if p.format == "json" {
		return p.json(v)
	}
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}
