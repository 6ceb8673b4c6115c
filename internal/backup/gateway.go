package backup

import (
	"approachlog/internal/backup/interfaces"
	"approachlog/internal/models"
	"approachlog/internal/providers"
	"approachlog/internal/structures"
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

const dateLayout = "2006-01-02"

// Gateway exports record snapshots through a Picker and imports them back.
// It never returns errors to callers: failures are logged and counted here.
type Gateway struct {
	picker     Picker
	compressor interfaces.CompressorInterface
	compress   bool
	prefix     string
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	now        func() time.Time
}

func NewGateway(picker Picker, compressor interfaces.CompressorInterface, compress bool, prefix string, logger providers.Logger, metrics providers.MetricsProviderInterface) *Gateway {
	return &Gateway{
		picker:     picker,
		compressor: compressor,
		compress:   compress,
		prefix:     prefix,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Supported reports whether the gateway has anywhere to read or write.
func (g *Gateway) Supported() bool {
	if g == nil || g.picker == nil {
		return false
	}
	_, unsupported := g.picker.(UnsupportedPicker)
	return !unsupported
}

func (g *Gateway) Name() string {
	if g == nil || g.picker == nil {
		return "none"
	}
	return g.picker.Name()
}

// SuggestedName is the file name offered to the picker for today's backup.
func (g *Gateway) SuggestedName() string {
	name := fmt.Sprintf("%s-backup-%s.json", g.prefix, g.now().Format(dateLayout))
	if g.compress {
		name += ".zst"
	}
	return name
}

// ExportSnapshot writes records as a pretty-printed JSON array and reports
// whether the write happened.
func (g *Gateway) ExportSnapshot(ctx context.Context, records []models.ApproachRecord) bool {
	if !g.Supported() {
		if g != nil {
			g.logger.Warnf(providers.TypeBackup, "Backup export skipped: no backup target available")
		}
		return false
	}

	location, err := g.export(ctx, records)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			g.logger.Infof(providers.TypeBackup, "Backup export to %s cancelled", g.picker.Name())
		} else {
			g.logger.Errorf(providers.TypeBackup, "Backup export to %s failed: %s", g.picker.Name(), err)
		}
		g.metrics.IncBackups(g.picker.Name(), false)
		return false
	}

	g.logger.Infof(providers.TypeBackup, "Backup of %d records written to %s", len(records), location)
	g.metrics.IncBackups(g.picker.Name(), true)
	return true
}

func (g *Gateway) export(ctx context.Context, records []models.ApproachRecord) (string, error) {
	data, err := EncodeSnapshot(records)
	if err != nil {
		return "", err
	}
	if g.compress {
		if data, err = g.compressor.Compress(data); err != nil {
			return "", fmt.Errorf("compress snapshot: %w", err)
		}
	}
	return g.picker.Save(ctx, g.SuggestedName(), data)
}

// ImportSnapshot reads a snapshot chosen by the picker. It returns nil on any
// failure; an empty backup yields an empty, non-nil slice.
func (g *Gateway) ImportSnapshot(ctx context.Context) []models.ApproachRecord {
	if !g.Supported() {
		if g != nil {
			g.logger.Warnf(providers.TypeBackup, "Backup import skipped: no backup source available")
		}
		return nil
	}

	location, data, err := g.picker.Open(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
			g.logger.Infof(providers.TypeBackup, "Backup import from %s cancelled", g.picker.Name())
		case errors.Is(err, ErrNoBackup):
			g.logger.Infof(providers.TypeBackup, "No backup available at %s", g.picker.Name())
		default:
			g.logger.Errorf(providers.TypeBackup, "Backup import from %s failed: %s", g.picker.Name(), err)
		}
		return nil
	}

	if isZstd(data) {
		if data, err = g.compressor.Decompress(data); err != nil {
			g.logger.Errorf(providers.TypeBackup, "Backup %s could not be decompressed: %s", location, err)
			return nil
		}
	}

	records, err := DecodeSnapshot(data)
	if err != nil {
		g.logger.Errorf(providers.TypeBackup, "Backup %s could not be parsed: %s", location, err)
		return nil
	}

	g.logger.Infof(providers.TypeBackup, "Read %d records from backup %s", len(records), location)
	return records
}

// EncodeSnapshot renders records in the backup file format.
func EncodeSnapshot(records []models.ApproachRecord) ([]byte, error) {
	if records == nil {
		records = []models.ApproachRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a backup file. Anything but a JSON array of objects
// is rejected.
func DecodeSnapshot(data []byte) ([]models.ApproachRecord, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("snapshot is not a JSON array")
	}
	var records []models.ApproachRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if records == nil {
		records = []models.ApproachRecord{}
	}
	return records, nil
}

// Targets holds every configured backup destination.
type Targets struct {
	Primary *Gateway
	Mirrors []*Gateway
}

// All returns the primary followed by the mirrors.
func (t *Targets) All() []*Gateway {
	return append([]*Gateway{t.Primary}, t.Mirrors...)
}

func NewTargets(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) (*Targets, error) {
	b := conf.Backup
	if !b.Enabled {
		return &Targets{Primary: NewGateway(UnsupportedPicker{}, compressor, b.Compress, b.Prefix, logger, metrics)}, nil
	}

	targets := &Targets{
		Primary: NewGateway(NewDirectoryPicker(b.Dir, b.Prefix), compressor, b.Compress, b.Prefix, logger, metrics),
	}
	if b.ObjectStore.Enabled {
		store, err := NewMinIOStore(b.ObjectStore)
		if err != nil {
			return nil, err
		}
		picker := NewObjectStorePicker(store, b.Prefix)
		targets.Mirrors = append(targets.Mirrors, NewGateway(picker, compressor, b.Compress, b.Prefix, logger, metrics))
	}
	return targets, nil
}
