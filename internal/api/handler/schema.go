package handler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/logbook/logbook-service/internal/core/domain"
)

// --- Envelope ---

// rpcRequest is the single request shape accepted by POST /rpc. The session
// field sent by older clients is accepted and ignored; identity comes from
// the bearer token.
type rpcRequest struct {
	Action   string          `json:"action"`
	Session  json.RawMessage `json:"session,omitempty" swaggerignore:"true"`
	Data     json.RawMessage `json:"data,omitempty" swaggertype:"object"`
	ID       entryID         `json:"id,omitempty" swaggertype:"string"`
	Username string          `json:"username,omitempty"`
}

// Envelope is the uniform response: {success, data} or {success, message}.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// entryID accepts an id sent either as a JSON number or as a numeric string.
type entryID int64

func (id *entryID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("id %q is not an integer", s)
	}
	*id = entryID(n)
	return nil
}

// --- Payloads ---

type credentialsPayload struct {
	Username string `json:"username"    validate:"required,max=64"`
	Password string `json:"password"    validate:"required"`
	FullName string `json:"namaLengkap" validate:"max=128"`
}

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type entryPayload struct {
	Timestamp   string `json:"waktu"     validate:"required"`
	Title       string `json:"judul"     validate:"required"`
	Description string `json:"deskripsi" validate:"required"`
	Image       string `json:"image"`
	MimeType    string `json:"mimeType"`
}

type accountPatchPayload struct {
	Password *string `json:"password"    validate:"omitempty,min=1"`
	Role     *string `json:"role"        validate:"omitempty,oneof=Admin User"`
	FullName *string `json:"namaLengkap" validate:"omitempty,max=128"`
}

func (p accountPatchPayload) toPatch() domain.AccountPatch {
	patch := domain.AccountPatch{Password: p.Password, FullName: p.FullName}
	if p.Role != nil {
		role := domain.Role(*p.Role)
		patch.Role = &role
	}
	return patch
}

// --- Responses ---

type accountResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"namaLengkap"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{Username: a.Username, Role: string(a.Role), FullName: a.FullName}
}

type loginResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"namaLengkap"`
	Token    string `json:"token"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type usernameResponse struct {
	Username string `json:"username"`
}
