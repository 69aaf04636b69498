package handler

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/logbook/logbook-service/internal/core/domain"
)

func (d *Dispatcher) register(c echo.Context, req *rpcRequest, _ domain.Session) (any, error) {
	var p credentialsPayload
	if err := decodeData(c, req.Data, &p); err != nil {
		return nil, err
	}

	account, err := d.accounts.Register(c.Request().Context(), p.Username, p.Password, p.FullName)
	if err != nil {
		return nil, err
	}
	return toAccountResponse(account), nil
}

func (d *Dispatcher) login(c echo.Context, req *rpcRequest, _ domain.Session) (any, error) {
	var p loginPayload
	if err := decodeData(c, req.Data, &p); err != nil {
		return nil, err
	}

	token, account, err := d.accounts.Authenticate(c.Request().Context(), p.Username, p.Password)
	if err != nil {
		return nil, err
	}
	return loginResponse{
		Username: account.Username,
		Role:     string(account.Role),
		FullName: account.FullName,
		Token:    token,
	}, nil
}

func (d *Dispatcher) readUsers(c echo.Context, _ *rpcRequest, session domain.Session) (any, error) {
	accounts, err := d.accounts.List(c.Request().Context(), session)
	if err != nil {
		return nil, err
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return out, nil
}

func (d *Dispatcher) adminAddUser(c echo.Context, req *rpcRequest, session domain.Session) (any, error) {
	var p credentialsPayload
	if err := decodeData(c, req.Data, &p); err != nil {
		return nil, err
	}

	account, err := d.accounts.AdminAdd(c.Request().Context(), session, p.Username, p.Password, p.FullName)
	if err != nil {
		return nil, err
	}
	return toAccountResponse(account), nil
}

func (d *Dispatcher) adminUpdateUser(c echo.Context, req *rpcRequest, session domain.Session) (any, error) {
	target, err := targetUsername(req)
	if err != nil {
		return nil, err
	}
	var p accountPatchPayload
	if err := decodeData(c, req.Data, &p); err != nil {
		return nil, err
	}

	if err := d.accounts.Update(c.Request().Context(), session, target, p.toPatch()); err != nil {
		return nil, err
	}
	return usernameResponse{Username: target}, nil
}

func (d *Dispatcher) adminDeleteUser(c echo.Context, req *rpcRequest, session domain.Session) (any, error) {
	target, err := targetUsername(req)
	if err != nil {
		return nil, err
	}

	if err := d.accounts.Delete(c.Request().Context(), session, target); err != nil {
		return nil, err
	}
	return usernameResponse{Username: target}, nil
}

func targetUsername(req *rpcRequest) (string, error) {
	target := strings.TrimSpace(req.Username)
	if target == "" {
		return "", fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	return target, nil
}
