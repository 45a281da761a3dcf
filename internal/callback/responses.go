// responses.go -- HTML and plain-text renderers for verification outcomes.
//
// Pages are html/template so provider- and user-controlled values
// (nickname, identity, provider message) are always escaped.
package callback

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/MGallo-Code/bungie-verify/internal/verify"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pages maps a page name to its parsed layout+body template set.
var pages = map[string]*template.Template{
	"success": parsePage("success"),
	"failure": parsePage("failure"),
	"error":   parsePage("error"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html"))
}

// pageData is the view model shared by all pages.
type pageData struct {
	Title    string
	Kind     string // CSS class: success | failure | error
	Icon     string
	Message  string
	Identity string
	Nickname string
}

// Plain-text bodies for requests rejected before any remote call.
const (
	missingCodeText  = "Authorization code missing"
	missingStateText = "State parameter missing"
	missingIdentity  = "We could not read a Bungie display name from your account."
)

// statusFor maps an outcome to its HTTP status.
func statusFor(o verify.Outcome) int {
	switch o {
	case verify.Success:
		return http.StatusOK
	case verify.UnexpectedError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// RenderResult writes the response for res: status per outcome, HTML or plain text body.
func RenderResult(w http.ResponseWriter, r *http.Request, res verify.Result) {
	status := statusFor(res.Outcome)

	switch res.Outcome {
	case verify.MissingCode:
		PlainText(w, status, missingCodeText)
	case verify.MissingState:
		PlainText(w, status, missingStateText)
	case verify.Success:
		renderPage(w, r, status, "success", pageData{Title: "Verification Successful!", Kind: "success", Icon: "✓"})
	case verify.Mismatch:
		renderPage(w, r, status, "failure", pageData{
			Title: "Verification Failed", Kind: "failure", Icon: "✗",
			Message:  "The Bungie username does not match the nickname you provided in your application.",
			Identity: res.Identity, Nickname: res.Nickname,
		})
	case verify.MissingIdentity:
		renderPage(w, r, status, "failure", pageData{
			Title: "Verification Failed", Kind: "failure", Icon: "✗",
			Message: missingIdentity,
		})
	case verify.ProviderError:
		renderPage(w, r, status, "error", pageData{Title: "Authorization Error", Kind: "error", Icon: "⚠", Message: res.Message})
	default:
		msg := res.Message
		if msg == "" {
			msg = verify.DefaultErrorMessage
		}
		renderPage(w, r, status, "error", pageData{Title: "Verification Error", Kind: "error", Icon: "⚠", Message: msg})
	}
}

// renderPage executes a page into a buffer first so a template error can still become a clean 500.
func renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logError(r, "rendering page failed", "page", name, "error", err)
		PlainText(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// PlainText writes a text/plain response.
func PlainText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
