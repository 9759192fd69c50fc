package httperr

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
)

// Content types written by the bundled renderers.
const (
	ContentTypeText    = "text/plain; charset=utf-8"
	ContentTypeJSON    = "application/json; charset=utf-8"
	ContentTypeProblem = "application/problem+json"
)

// Response is a fully built error response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// ContentType returns the Content-Type header of the response.
func (r Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Write sends the response to w.
func (r Response) Write(w http.ResponseWriter) {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	w.WriteHeader(r.Status)
	_, _ = w.Write(r.Body)
}

// WriteGin sends the response through c and aborts the handler chain.
func (r Response) WriteGin(c *gin.Context) {
	for k, vs := range r.Header {
		if k == "Content-Type" {
			continue
		}
		for _, v := range vs {
			c.Writer.Header().Add(k, v)
		}
	}
	c.Data(r.Status, r.ContentType(), r.Body)
	c.Abort()
}

// Renderer turns an erased error into a Response.
//
// Renderers are selected through the type parameter of Dyn and Translator and
// are always used as their zero value, so implementations must be stateless.
// A renderer may only look at Status, ReasonOf and TypeNameOf of the error.
type Renderer interface {
	Render(e HTTPError) Response
}

// TextRenderer writes the reason as a plain text body. It is the default.
type TextRenderer struct{}

// Render implements Renderer.
func (TextRenderer) Render(e HTTPError) Response {
	return Response{
		Status: statusOf(e),
		Header: http.Header{"Content-Type": {ContentTypeText}},
		Body:   []byte(ReasonOf(e)),
	}
}

// JSONBody is the body written by JSONRenderer.
type JSONBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// JSONRenderer writes {"status": ..., "message": ...}.
type JSONRenderer struct{}

// Render implements Renderer.
func (JSONRenderer) Render(e HTTPError) Response {
	status := statusOf(e)
	return jsonResponse(status, ContentTypeJSON, JSONBody{Status: status, Message: ReasonOf(e)})
}

// Problem is an RFC 9457 problem details document.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ProblemRenderer writes application/problem+json documents.
type ProblemRenderer struct{}

// Render implements Renderer.
func (ProblemRenderer) Render(e HTTPError) Response {
	status := statusOf(e)
	return jsonResponse(status, ContentTypeProblem, Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: ReasonOf(e),
	})
}

func jsonResponse(status int, contentType string, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		// Bodies are built from plain strings and ints only.
		body = []byte(`{"status":500,"message":"Server error"}`)
		status = http.StatusInternalServerError
	}
	return Response{
		Status: status,
		Header: http.Header{"Content-Type": {contentType}},
		Body:   body,
	}
}

// statusOf keeps the status within the error range 400-599. Anything else
// would let an error reach the client as a success, informational or
// bodyless response.
func statusOf(e HTTPError) int {
	s := e.Status()
	if s < 400 || s > 599 {
		return http.StatusInternalServerError
	}
	return s
}
