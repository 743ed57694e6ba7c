package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/health", app.healthCheckHandler)

	// auth
	router.HandlerFunc(http.MethodPost, "/api/auth/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/api/auth/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/api/auth/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodGet, "/api/auth/me", app.requireAuthUser(app.currentUserHandler))
	router.HandlerFunc(http.MethodPost, "/api/auth/verify-otp", app.verifyOTPHandler)
	router.HandlerFunc(http.MethodPost, "/api/auth/resend-otp", app.resendOTPHandler)

	// blog service. httprouter refuses a static segment beside the :id
	// wildcard, so the reserved names stats and reorder are dispatched
	// inside the wildcard handlers instead of registered as siblings.
	router.HandlerFunc(http.MethodGet, "/api/blogs", app.listBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/api/blogs", app.requireOwnerUser(app.createBlogHandler))
	router.HandlerFunc(http.MethodGet, "/api/blogs/:id", app.getBlogDispatchHandler)
	router.HandlerFunc(http.MethodPost, "/api/blogs/:id", app.postBlogDispatchHandler)
	router.HandlerFunc(http.MethodPut, "/api/blogs/:id", app.requireOwnerUser(app.updateBlogHandler))
	router.HandlerFunc(http.MethodPatch, "/api/blogs/:id", app.requireOwnerUser(app.updateBlogHandler))
	router.HandlerFunc(http.MethodDelete, "/api/blogs/:id", app.requireOwnerUser(app.deleteBlogHandler))

	// comments
	router.HandlerFunc(http.MethodGet, "/api/blogs/:id/comments", app.listCommentsHandler)
	router.HandlerFunc(http.MethodPost, "/api/blogs/:id/comments", app.requireVerifiedUser(app.createCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/api/blogs/:id/comments/:commentId", app.requireAuthUser(app.deleteCommentHandler))

	return app.recoverPanic(app.enableCORS(app.rateLimit(app.logRequest(app.authenticate(router)))))
}

func (app *application) getBlogDispatchHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())

	switch params.ByName("id") {
	case "stats":
		app.blogStatsHandler(w, r)
	case "reorder":
		app.requireOwnerUser(app.blogsInOrderHandler)(w, r)
	default:
		app.getBlogHandler(w, r)
	}
}

func (app *application) postBlogDispatchHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())

	if params.ByName("id") == "reorder" {
		app.requireOwnerUser(app.reorderBlogsHandler)(w, r)
		return
	}

	// a plain post id only supports GET, PUT, PATCH, and DELETE
	app.methodNotAllowedErrorResponse(w, r)
}
