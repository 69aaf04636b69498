package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/logbook/logbook-service/internal/core/domain"
	"github.com/logbook/logbook-service/internal/core/ports"
)

func (d *Dispatcher) readEntries(c echo.Context, _ *rpcRequest, session domain.Session) (any, error) {
	return d.entries.Read(c.Request().Context(), session)
}

func (d *Dispatcher) createEntry(c echo.Context, req *rpcRequest, session domain.Session) (any, error) {
	input, err := entryInput(c, req)
	if err != nil {
		return nil, err
	}

	id, err := d.entries.Create(c.Request().Context(), session, input)
	if err != nil {
		return nil, err
	}
	return idResponse{ID: id}, nil
}

func (d *Dispatcher) updateEntry(c echo.Context, req *rpcRequest, session domain.Session) (any, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}
	input, err := entryInput(c, req)
	if err != nil {
		return nil, err
	}

	if err := d.entries.Update(c.Request().Context(), session, id, input); err != nil {
		return nil, err
	}
	return idResponse{ID: id}, nil
}

func (d *Dispatcher) deleteEntry(c echo.Context, req *rpcRequest, session domain.Session) (any, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}

	if err := d.entries.Delete(c.Request().Context(), session, id); err != nil {
		return nil, err
	}
	return idResponse{ID: id}, nil
}

func entryInput(c echo.Context, req *rpcRequest) (ports.EntryInput, error) {
	var p entryPayload
	if err := decodeData(c, req.Data, &p); err != nil {
		return ports.EntryInput{}, err
	}

	input := ports.EntryInput{
		Timestamp:   p.Timestamp,
		Title:       p.Title,
		Description: p.Description,
	}
	if p.Image != "" {
		input.Image = &ports.ImageInput{Payload: p.Image, MimeType: p.MimeType}
	}
	return input, nil
}

func requireID(req *rpcRequest) (int64, error) {
	if req.ID == 0 {
		return 0, fmt.Errorf("%w: id is required", domain.ErrValidation)
	}
	return int64(req.ID), nil
}
