package httperr_test

import (
	"errors"
	"fmt"
	"net/http"

	"dynhttp/pkg/httperr"
)

// Example_domainError shows a purpose-built error keeping its own status and reason.
func Example_domainError() {
	tr := httperr.NewText(httperr.Options{}, nil)

	resp := tr.From(notFound{reason: "user missing"}).Render()

	fmt.Println(resp.Status, string(resp.Body))

	// Output:
	// 404 user missing
}

// Example_hideInternalDetail shows generic errors losing their text, but not
// their explicit status, in hide-detail mode.
func Example_hideInternalDetail() {
	shown := httperr.NewText(httperr.Options{}, nil)
	hidden := httperr.NewText(httperr.Options{HideInternalDetail: true}, nil)

	err := errors.New("upstream timeout")

	r1 := shown.From(err).Render()
	r2 := hidden.From(err).Render()
	r3 := hidden.From(httperr.WithStatus(err, http.StatusBadRequest)).Render()

	fmt.Println(r1.Status, string(r1.Body))
	fmt.Println(r2.Status, string(r2.Body))
	fmt.Println(r3.Status, string(r3.Body))

	// Output:
	// 500 upstream timeout
	// 500 Server error
	// 400 Server error
}

// Example_jsonRenderer selects the renderer through the type parameter.
func Example_jsonRenderer() {
	tr := httperr.New[httperr.JSONRenderer](httperr.Options{}, nil)

	resp := tr.From(notFound{reason: "user missing"}).Render()

	fmt.Println(resp.ContentType())
	fmt.Println(string(resp.Body))

	// Output:
	// application/json; charset=utf-8
	// {"status":404,"message":"user missing"}
}
