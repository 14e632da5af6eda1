package main

import "net/http"

// healthcheckHandler reports the service status and which integrations are on.
func (app *app) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	env := envelope{
		"status": "available",
		"system_info": map[string]any{
			"environment": app.config.env,
			"version":     version,
			"catalog":     app.config.catalog.source,
			"sheets":      app.sheets != nil,
			"mailer":      app.mailer != nil,
		},
	}

	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
