package constvars

const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
)

const (
	MIMEApplicationJSON = "application/json"
	MIMEOctetStream     = "application/octet-stream"
)

const (
	StatusOK       = 200
	StatusCreated  = 201
	StatusAccepted = 202

	StatusBadRequest     = 400
	StatusUnauthorized   = 401
	StatusPaymentRequred = 402
	StatusForbidden      = 403
	StatusNotFound       = 404
	StatusConflict       = 409
	StatusRequestTimeout = 408
	StatusTooManyRequest = 429

	StatusInternalServerError = 500
	StatusBadGateway          = 502
	StatusGatewayTimeout      = 504
)
