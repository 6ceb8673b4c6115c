package internal

import (
	"approachlog/internal/controllers"
	"approachlog/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/approaches", http.HandlerFunc(apiController.ListApproaches))
	routers.Post("/approaches", http.HandlerFunc(apiController.CreateApproach))
	routers.Get("/approach", http.HandlerFunc(apiController.GetApproach))
	routers.Put("/approach", http.HandlerFunc(apiController.SaveApproach))
	routers.Delete("/approach", http.HandlerFunc(apiController.DeleteApproach))
	routers.Get("/search", http.HandlerFunc(apiController.Search))
	routers.Get("/people", http.HandlerFunc(apiController.People))
	routers.Get("/person", http.HandlerFunc(apiController.GetPerson))
	routers.Put("/person", http.HandlerFunc(apiController.UpdatePerson))
	routers.Get("/related", http.HandlerFunc(apiController.Related))
	routers.Post("/photos/add", http.HandlerFunc(apiController.AddPhoto))
	routers.Post("/photos/profile", http.HandlerFunc(apiController.SetProfilePhoto))
	routers.Post("/photos/remove", http.HandlerFunc(apiController.RemovePhoto))
	routers.Post("/backup/export", http.HandlerFunc(apiController.ExportBackup))
	routers.Post("/backup/import", http.HandlerFunc(apiController.ImportBackup))
	return routers
}
