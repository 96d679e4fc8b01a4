package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"payfastBack/internal/handlers"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	jsonMiddleware := standardMiddleware.Append(makeResponseJSON)
	operatorMiddleware := jsonMiddleware.Append(app.operatorAuth)

	mux := pat.New()

	mux.Get("/health", jsonMiddleware.ThenFunc(handlers.Health))
	mux.Get("/metrics", standardMiddleware.Then(app.metrics.Handler()))

	// PayFast
	mux.Post("/payfast/sign", jsonMiddleware.ThenFunc(app.payfastHandler.Sign))
	mux.Post("/payfast/itn", standardMiddleware.ThenFunc(app.payfastHandler.Notify))
	mux.Get("/payfast/itn/:pf_payment_id", operatorMiddleware.ThenFunc(app.payfastHandler.Notifications))

	// Invoices; the fixed paths must be registered before the document prefix.
	mux.Get("/invoices/resend", operatorMiddleware.ThenFunc(app.invoiceHandler.Resend))
	mux.Get("/invoices/repair", operatorMiddleware.ThenFunc(app.invoiceHandler.Repair))
	if app.documents != nil {
		mux.Get("/invoices/", standardMiddleware.Then(http.StripPrefix("/invoices", app.documents)))
	}

	return mux
}
