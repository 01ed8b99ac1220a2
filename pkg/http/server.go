// Package http exposes the validate/compile operations and connection CRUD
// over REST.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	net_http "net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dashforge/dashforge/pkg/compiler"
	"github.com/dashforge/dashforge/pkg/connections"
	"github.com/dashforge/dashforge/pkg/loggers"
	"github.com/dashforge/dashforge/pkg/metabase"
	"github.com/dashforge/dashforge/pkg/spec"
	"github.com/dashforge/dashforge/pkg/validator"
)

type ServerConfig struct {
	Port uint
}

type server struct {
	config   ServerConfig
	store    *connections.Store
	sessions *metabase.SessionManager
}

var (
	zaplog *zap.Logger = loggers.ZapLogger()
)

type connectionRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type connectionResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Username    string `json:"username"`
	IsConnected bool   `json:"is_connected"`
}

type compileRequest struct {
	Spec           json.RawMessage `json:"spec"`
	ConnectionName string          `json:"connection_name"`
	DatabaseID     int             `json:"database_id"`
	CollectionID   *int            `json:"collection_id"`
}

type compileResponse struct {
	Success      bool   `json:"success"`
	DashboardID  int    `json:"dashboard_id"`
	DashboardURL string `json:"dashboard_url"`
	CardsCreated int    `json:"cards_created"`
	Message      string `json:"message"`
}

func newConnectionResponse(conn *connections.Connection) connectionResponse {
	return connectionResponse{
		ID:          conn.ID,
		Name:        conn.Name,
		URL:         conn.URL,
		Username:    conn.Username,
		IsConnected: conn.Connected(),
	}
}

func statusHandler(ctx *fasthttp.RequestCtx) {
	writeJson(ctx, map[string]string{
		"status":  "ok",
		"message": "Dashforge API",
	})
}

func (server *server) apiCreateConnectionHandler(ctx *fasthttp.RequestCtx) {
	request := connectionRequest{Name: "default"}
	if err := json.Unmarshal(ctx.Request.Body(), &request); err != nil {
		ctx.Response.SetStatusCode(net_http.StatusBadRequest)
		ctx.Response.SetBodyString(err.Error())
		return
	}

	// Test the credential before persisting anything
	sessionToken, err := metabase.Authenticate(request.URL, request.Username, request.Password)
	if err != nil {
		ctx.Response.SetStatusCode(net_http.StatusBadRequest)
		ctx.Response.SetBodyString(fmt.Sprintf("could not connect to Metabase: %s", err.Error()))
		return
	}

	conn, err := server.store.Upsert(request.Name, request.URL, request.Username, request.Password, sessionToken)
	if err != nil {
		ctx.Response.SetStatusCode(net_http.StatusInternalServerError)
		ctx.Response.SetBodyString(err.Error())
		return
	}
	server.sessions.Seed(conn.Name, sessionToken)

	writeJson(ctx, newConnectionResponse(conn))
}

func (server *server) apiListConnectionsHandler(ctx *fasthttp.RequestCtx) {
	conns, err := server.store.List()
	if err != nil {
		ctx.Response.SetStatusCode(net_http.StatusInternalServerError)
		ctx.Response.SetBodyString(err.Error())
		return
	}

	data := make([]connectionResponse, 0, len(conns))
	for _, conn := range conns {
		data = append(data, newConnectionResponse(conn))
	}

	writeJson(ctx, data)
}

func (server *server) apiGetConnectionHandler(ctx *fasthttp.RequestCtx) {
	name := ctx.UserValue("name").(string)
	conn, err := server.store.Get(name)
	if err != nil {
		writeStoreError(ctx, err)
		return
	}

	writeJson(ctx, newConnectionResponse(conn))
}

func (server *server) apiDeleteConnectionHandler(ctx *fasthttp.RequestCtx) {
	name := ctx.UserValue("name").(string)
	if err := server.store.Delete(name); err != nil {
		writeStoreError(ctx, err)
		return
	}

	writeJson(ctx, map[string]string{"status": "deleted"})
}

func (server *server) apiGetDatabasesHandler(ctx *fasthttp.RequestCtx) {
	server.proxyBackendList(ctx, "/database")
}

func (server *server) apiGetCollectionsHandler(ctx *fasthttp.RequestCtx) {
	server.proxyBackendList(ctx, "/collection")
}

// proxyBackendList forwards a backend listing to the caller under the named
// connection's session.
func (server *server) proxyBackendList(ctx *fasthttp.RequestCtx, endpoint string) {
	name := ctx.UserValue("name").(string)
	session, err := server.openSession(name)
	if err != nil {
		writeStoreError(ctx, err)
		return
	}

	data, err := session.Get(endpoint)
	if err != nil {
		writeBackendError(ctx, err)
		return
	}

	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetBody(data)
}

func apiValidateHandler(ctx *fasthttp.RequestCtx) {
	doc, err := spec.Unmarshal(ctx.Request.Body())
	if err != nil {
		ctx.Response.SetStatusCode(net_http.StatusBadRequest)
		ctx.Response.SetBodyString(err.Error())
		return
	}

	writeJson(ctx, validator.Validate(doc))
}

func (server *server) apiCreateDashboardHandler(ctx *fasthttp.RequestCtx) {
	request := compileRequest{ConnectionName: "default"}
	if err := json.Unmarshal(ctx.Request.Body(), &request); err != nil {
		ctx.Response.SetStatusCode(net_http.StatusBadRequest)
		ctx.Response.SetBodyString(err.Error())
		return
	}

	doc, err := spec.Unmarshal(request.Spec)
	if err != nil {
		ctx.Response.SetStatusCode(net_http.StatusBadRequest)
		ctx.Response.SetBodyString(err.Error())
		return
	}

	session, err := server.openSession(request.ConnectionName)
	if err != nil {
		writeStoreError(ctx, err)
		return
	}

	result, err := compiler.Compile(session, compiler.Request{
		Doc:          doc,
		DatabaseID:   request.DatabaseID,
		CollectionID: request.CollectionID,
	})
	if err != nil {
		zaplog.Sugar().Errorf("compile failed for connection '%s': %s", request.ConnectionName, err.Error())
		writeBackendError(ctx, err)
		return
	}

	writeJson(ctx, compileResponse{
		Success:      true,
		DashboardID:  result.DashboardID,
		DashboardURL: result.DashboardURL,
		CardsCreated: result.CardsCreated,
		Message:      fmt.Sprintf("Dashboard created successfully with %d cards", result.CardsCreated),
	})
}

// openSession resolves a named connection into an authenticated session,
// seeding the token cache with the persisted token.
func (server *server) openSession(name string) (*metabase.Session, error) {
	conn, err := server.store.Get(name)
	if err != nil {
		return nil, err
	}

	creds, err := server.store.Credentials(conn)
	if err != nil {
		return nil, err
	}

	server.sessions.Seed(conn.Name, conn.SessionToken)
	return server.sessions.Session(conn.Name, creds), nil
}

func writeJson(ctx *fasthttp.RequestCtx, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.Response.SetStatusCode(net_http.StatusInternalServerError)
		ctx.Response.SetBodyString(err.Error())
		return
	}

	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetBody(response)
}

func writeStoreError(ctx *fasthttp.RequestCtx, err error) {
	if errors.Is(err, connections.ErrNotFound) {
		ctx.Response.SetStatusCode(net_http.StatusNotFound)
	} else {
		ctx.Response.SetStatusCode(net_http.StatusInternalServerError)
	}
	ctx.Response.SetBodyString(err.Error())
}

// writeBackendError maps the compile error taxonomy onto HTTP: rejected
// credentials become 401, other backend failures pass their status and body
// through verbatim.
func writeBackendError(ctx *fasthttp.RequestCtx, err error) {
	if metabase.IsAuthenticationError(err) {
		ctx.Response.SetStatusCode(net_http.StatusUnauthorized)
		ctx.Response.SetBodyString(err.Error())
		return
	}

	if statusErr, ok := metabase.AsStatusError(err); ok {
		ctx.Response.SetStatusCode(statusErr.StatusCode)
		ctx.Response.SetBodyString(statusErr.Body)
		return
	}

	ctx.Response.SetStatusCode(net_http.StatusInternalServerError)
	ctx.Response.SetBodyString(err.Error())
}

// corsMiddleware answers preflights and marks every response as
// cross-origin accessible; the API is consumed by a browser frontend.
func corsMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
		ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if string(ctx.Method()) == net_http.MethodOptions {
			ctx.Response.SetStatusCode(net_http.StatusNoContent)
			return
		}

		next(ctx)
	}
}

func NewServer(port uint, store *connections.Store, sessions *metabase.SessionManager) *server {
	return &server{
		config: ServerConfig{
			Port: port,
		},
		store:    store,
		sessions: sessions,
	}
}

func (server *server) Start() error {
	r := router.New()
	r.GET("/", statusHandler)

	r.POST("/connections", server.apiCreateConnectionHandler)
	r.GET("/connections", server.apiListConnectionsHandler)
	r.GET("/connections/{name}", server.apiGetConnectionHandler)
	r.DELETE("/connections/{name}", server.apiDeleteConnectionHandler)
	r.GET("/connections/{name}/databases", server.apiGetDatabasesHandler)
	r.GET("/connections/{name}/collections", server.apiGetCollectionsHandler)

	r.POST("/validate", apiValidateHandler)
	r.POST("/create-dashboard", server.apiCreateDashboardHandler)

	serverLogger, err := zap.NewStdLogAt(zaplog, zap.DebugLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	fastServer := &fasthttp.Server{
		Handler: corsMiddleware(r.Handler),
		Logger:  serverLogger,
	}

	go func() {
		log.Fatal(fastServer.ListenAndServe(fmt.Sprintf(":%d", server.config.Port)))
	}()

	return nil
}
