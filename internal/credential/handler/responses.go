package handler

import (
	"vcdemo/internal/credential/models"
)

// RevokeResponse is the body of a successful POST /api/revoke.
type RevokeResponse struct {
	Message    string             `json:"message"`
	Credential *models.Credential `json:"credential"`
}

// RevokedDisclosureResponse is the 403 body for disclosure against a revoked credential.
type RevokedDisclosureResponse struct {
	Error            string                  `json:"error"`
	Message          string                  `json:"message"`
	RevocationStatus models.RevocationStatus `json:"revocationStatus"`
}

// MsgRevoked is the success message of POST /api/revoke.
const MsgRevoked = "Credential successfully revoked"
