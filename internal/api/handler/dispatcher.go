package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/logbook/logbook-service/internal/api/middleware"
	"github.com/logbook/logbook-service/internal/core/domain"
	"github.com/logbook/logbook-service/internal/core/ports"
	"github.com/logbook/logbook-service/internal/metrics"
)

// Action names accepted by the dispatcher.
const (
	ActionRegister        = "register"
	ActionLogin           = "login"
	ActionRead            = "read"
	ActionCreate          = "create"
	ActionUpdate          = "update"
	ActionDelete          = "delete"
	ActionReadUsers       = "readUsers"
	ActionAdminAddUser    = "adminAddUser"
	ActionAdminUpdateUser = "adminUpdateUser"
	ActionAdminDeleteUser = "adminDeleteUser"
)

const unknownAction = "unknown"

type actionFunc func(c echo.Context, req *rpcRequest, session domain.Session) (any, error)

type action struct {
	public bool
	run    actionFunc
}

// Dispatcher is the single RPC entry point. It resolves the action, checks
// that a session is present where one is needed, and wraps every outcome in
// an Envelope.
type Dispatcher struct {
	accounts ports.AccountService
	entries  ports.EntryService
	actions  map[string]action
	log      zerolog.Logger
}

func NewDispatcher(accounts ports.AccountService, entries ports.EntryService, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{accounts: accounts, entries: entries, log: log}
	d.actions = map[string]action{
		ActionRegister:        {public: true, run: d.register},
		ActionLogin:           {public: true, run: d.login},
		ActionRead:            {run: d.readEntries},
		ActionCreate:          {run: d.createEntry},
		ActionUpdate:          {run: d.updateEntry},
		ActionDelete:          {run: d.deleteEntry},
		ActionReadUsers:       {run: d.readUsers},
		ActionAdminAddUser:    {run: d.adminAddUser},
		ActionAdminUpdateUser: {run: d.adminUpdateUser},
		ActionAdminDeleteUser: {run: d.adminDeleteUser},
	}
	return d
}

// Handle dispatches an RPC envelope.
//
// @Summary      Dispatch an action
// @Description  Actions: register, login, read, create, update, delete, readUsers, adminAddUser, adminUpdateUser, adminDeleteUser.
// @Description  All actions except register and login need a bearer token from login.
// @Tags         rpc
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      rpcRequest  true  "RPC envelope"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Failure      409   {object}  Envelope
// @Failure      500   {object}  Envelope
// @Router       /rpc [post]
func (d *Dispatcher) Handle(c echo.Context) error {
	start := time.Now()

	var req rpcRequest
	if err := c.Bind(&req); err != nil {
		return d.respond(c, unknownAction, start, nil, fmt.Errorf("%w: malformed request body", domain.ErrValidation))
	}

	act, ok := d.actions[req.Action]
	if !ok {
		return d.respond(c, unknownAction, start, nil, domain.ErrInvalidAction)
	}

	session, authenticated := middleware.SessionFrom(c)
	if !act.public && !authenticated {
		return d.respond(c, req.Action, start, nil, domain.ErrUnauthenticated)
	}

	data, err := act.run(c, &req, session)
	return d.respond(c, req.Action, start, data, err)
}

func (d *Dispatcher) respond(c echo.Context, action string, start time.Time, data any, err error) error {
	metrics.RPCDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())

	if err != nil {
		status, msg, label := ResolveError(err)
		metrics.RPCRequestsTotal.WithLabelValues(action, label).Inc()

		ev := d.log.Debug()
		if status >= http.StatusInternalServerError {
			ev = d.log.Error()
		}
		ev.Err(err).
			Str("action", action).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Int("status", status).
			Msg("rpc action failed")

		return c.JSON(status, Envelope{Success: false, Message: msg})
	}

	metrics.RPCRequestsTotal.WithLabelValues(action, "ok").Inc()
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// decodeData unmarshals the envelope's data object into dst and validates it.
func decodeData(c echo.Context, raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("%w: data is required", domain.ErrValidation)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: data is malformed", domain.ErrValidation)
	}
	return c.Validate(dst)
}
