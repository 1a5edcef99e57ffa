package api

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"uploader/internal/task"
)

var uiTemplates = template.Must(template.New("layout").Parse(`{{define "layout"}}
<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>Uploader</title>
  <style>
    body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Cantarell,Noto Sans,sans-serif;max-width:880px;margin:32px auto;padding:0 16px;color:#0b0b0b;background:#fafafa}
    header{margin-bottom:24px}
    h1{font-size:22px;margin:0 0 8px}
    a{color:#0b63e5;text-decoration:none}
    a:hover{text-decoration:underline}
    .card{background:#fff;border:1px solid #e9e9e9;border-radius:10px;padding:16px;margin:12px 0}
    .row{display:flex;gap:12px;flex-wrap:wrap}
    .btn{display:inline-block;background:#0b63e5;color:#fff;border:none;padding:10px 14px;border-radius:8px;cursor:pointer}
    .btn.secondary{background:#444}
    input[type=text]{padding:9px 10px;border:1px solid #dcdcdc;border-radius:8px;width:100%}
    .muted{color:#666}
    .mono{font-family:ui-monospace,SFMono-Regular,Menlo,Monaco,Consolas,monospace}
    .list{margin:0;padding-left:18px}
    .status{display:inline-block;padding:4px 8px;border-radius:6px;background:#efefef;font-size:12px}
    footer{margin-top:24px;color:#666;font-size:12px}
  </style>
  </head>
<body>
  <header>
    <h1><a href="/ui">Uploader</a></h1>
    <div class="muted">Minimal no-JS helper for the upload API</div>
  </header>
  {{if .Error}}
  <div class="card" style="border-color:#f2b8b5;background:#fff6f6">
    <strong style="color:#b3261e">Error:</strong> <span class="muted">{{.Error}}</span>
  </div>
  {{end}}
  {{if .Tasks}}{{template "content-accepted" .}}{{else if .Task}}{{template "content-status" .}}{{else}}{{template "content-home" .}}{{end}}
  <footer>
    <div>API: <span class="mono">POST /upload</span> · <span class="mono">GET /status/{id}</span></div>
  </footer>
</body>
</html>
{{end}}

{{define "content-home"}}
  <div class="card">
    <h2>Upload files</h2>
    <form method="post" action="/ui/upload" enctype="multipart/form-data">
      <div class="row">
        <input type="file" name="file" multiple required />
        <button class="btn" type="submit">Upload</button>
      </div>
    </form>
    <div class="muted">POST /upload</div>
  </div>

  <div class="card">
    <h2>Check upload status</h2>
    <form method="get" action="/ui/status">
      <div class="row">
        <input type="text" name="id" placeholder="Task ID" required />
        <button class="btn" type="submit">Check</button>
      </div>
    </form>
    <div class="muted">GET /status/{id}</div>
  </div>
{{end}}

{{define "content-accepted"}}
  <div class="card">
    <h2>Accepted</h2>
    <ul class="list">
    {{range .Tasks}}
      <li>
        <span class="mono">{{.Filename}}</span> · <a class="mono" href="/ui/status?id={{.ID}}">{{.ID}}</a>
        <span class="status">{{.Status}}</span>
      </li>
    {{end}}
    </ul>
  </div>
{{end}}

{{define "content-status"}}
  <div class="card">
    <h2>Task <span class="mono">{{.Task.ID}}</span></h2>
    <div>File: <strong>{{.Task.Filename}}</strong></div>
    <div>Status: <span class="status">{{.Task.Status}}</span></div>
    {{if .Task.Reason}}<div class="muted">Reason: {{.Task.Reason}}</div>{{end}}
    <div class="muted">Created at: {{.Task.CreatedAt}}</div>
    <div style="margin-top:12px">
      <a class="btn secondary" href="/ui/status?id={{.Task.ID}}">Refresh</a>
    </div>
  </div>
{{end}}
`))

// RegisterUIRoutes registers minimal HTML UI without JS
func (a *API) RegisterUIRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(uiTemplates)
	router.GET("/ui", a.UIHome)
	router.POST("/ui/upload", a.UIUpload)
	router.GET("/ui/status", a.UIStatus)
}

// UIHome renders the upload form
func (a *API) UIHome(c *gin.Context) { c.HTML(http.StatusOK, "layout", gin.H{}) }

// UIUpload accepts files from the form and lists the created tasks
func (a *API) UIUpload(c *gin.Context) {
	files, err := readUploads(c.Request)
	if err != nil {
		c.HTML(http.StatusBadRequest, "layout", gin.H{"Error": uploadErrorMessage(err)})
		return
	}
	accepted, err := a.submit(files)
	if err != nil {
		log.Error().Err(err).Msg("failed to schedule upload from ui")
		c.HTML(http.StatusInternalServerError, "layout", gin.H{"Error": "upload not accepted"})
		return
	}
	c.HTML(http.StatusAccepted, "layout", gin.H{"Tasks": accepted})
}

// UIStatus renders a task page
func (a *API) UIStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		c.Redirect(http.StatusFound, "/ui")
		return
	}
	if t, ok := a.taskManager.GetTask(id); ok {
		c.HTML(http.StatusOK, "layout", gin.H{"Task": t})
		return
	}
	c.HTML(http.StatusNotFound, "layout", gin.H{"Error": task.ErrTaskNotFound.Error()})
}
