package powerauth

// The types in this file mirror the JSON bodies of the REST endpoints
// this core's operations produce and consume (§6). Issuing the actual
// HTTP request — TLS, retries, JSON marshaling — is the transport
// collaborator's job and is out of scope for this package; callers pass
// these structs to their own transport and feed the response back in.

// ActivationCreateRequest is the body of POST /pa/activation/create.
type ActivationCreateRequest struct {
	ActivationIDShort           string            `json:"activationIdShort"`
	ActivationName              string            `json:"activationName"`
	ActivationNonceB64          string            `json:"activationNonce"`
	ApplicationKeyB64           string            `json:"applicationKey"`
	ApplicationSignatureB64     string            `json:"applicationSignature"`
	EncryptedDevicePublicKeyB64 string            `json:"encryptedDevicePublicKey"`
	EphemeralPublicKeyB64       string            `json:"ephemeralPublicKey"`
	Extras                      map[string]string `json:"extras,omitempty"`
}

// ActivationCreateResponse is the body returned by
// POST /pa/activation/create.
type ActivationCreateResponse struct {
	ActivationID                        string `json:"activationId"`
	ActivationNonceB64                  string `json:"activationNonce"`
	EphemeralPublicKeyB64                string `json:"ephemeralPublicKey"`
	EncryptedServerPublicKeyB64          string `json:"encryptedServerPublicKey"`
	EncryptedServerPublicKeySignatureB64 string `json:"encryptedServerPublicKeySignature"`
	// DevicePrivateKeyEnvelopeB64, if the deployment issues one, is an
	// opaque server-wrapped ECDSA device private key recoverable later
	// only via a vault-unlock (§4.E "sign with device private key").
	DevicePrivateKeyEnvelopeB64 string `json:"devicePrivateKeyEnvelope,omitempty"`
}

// ActivationStatusRequest is the body of POST /pa/activation/status.
type ActivationStatusRequest struct {
	ActivationID string `json:"activationId"`
}

// ActivationStatusResponse is the body returned by
// POST /pa/activation/status; EncryptedStatusBlobB64 decodes to 24
// AES-CBC-encrypted bytes, see DecodeStatus.
type ActivationStatusResponse struct {
	EncryptedStatusBlobB64 string `json:"encryptedStatusBlob"`
}

// VaultUnlockResponse is the body returned by POST /pa/vault/unlock.
type VaultUnlockResponse struct {
	EncryptedVaultEncryptionKeyB64 string `json:"encryptedVaultEncryptionKey"`
}

// ActivationRemoveResponse is the body returned by
// POST /pa/activation/remove.
type ActivationRemoveResponse struct {
	Status string `json:"status"`
}

// SignedRequest is everything a caller needs to actually issue an HTTP
// request: the method/URI it was built for and the header value to
// attach.
type SignedRequest struct {
	Method             string
	URIID              string
	Body               []byte
	AuthorizationHeader string
}
