package main

import (
	"html/template"
	"net/http"

	"gridDashboard/internal/models"
	ctxutil "gridDashboard/utils"
)

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Dashboard</title>
    <meta name="csrf-token" content="{{.CSRFToken}}">
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        table { border-collapse: collapse; }
        td, th { padding: 6px 12px; border-bottom: 1px solid #ddd; text-align: left; }
    </style>
</head>
<body>
    <h1>Dashboard</h1>
    <p>Signed in as {{.UserEmail}} | <a href="/logout">Logout</a></p>
    <table>
        <tr><th>Grid</th><th>Columns</th><th>Saved views</th></tr>
        {{range .Grids}}
        <tr>
            <td>{{.Key}}</td>
            <td><a href="/api/grid/{{.Key}}/columns">{{.Columns}}</a></td>
            <td><a href="/api/views?grid_key={{.Key}}">{{if .ViewsError}}unavailable{{else}}{{.Views}}{{end}}</a></td>
        </tr>
        {{end}}
    </table>
</body>
</html>`))

type dashboardGrid struct {
	Key        string
	Columns    int
	Views      int
	ViewsError bool
}

func (app *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userEmail, _ := ctxutil.GetUserEmail(r)
	csrfToken, _ := ctxutil.GetCSRFToken(r)

	var grids []dashboardGrid
	for _, key := range models.GridKeys() {
		defs, _ := models.ColumnDefsFor(key)
		grid := dashboardGrid{Key: key, Columns: len(defs)}

		list, err := app.Views.List(r.Context(), key)
		if err != nil {
			app.Logger.WithField("grid_key", key).WithError(err).Warn("Failed to list views for dashboard")
			grid.ViewsError = true
		}
		grid.Views = len(list)
		grids = append(grids, grid)
	}

	data := struct {
		UserEmail string
		CSRFToken string
		Grids     []dashboardGrid
	}{
		UserEmail: userEmail,
		CSRFToken: csrfToken,
		Grids:     grids,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, data); err != nil {
		app.Logger.WithError(err).Error("Failed to render dashboard")
	}
}
