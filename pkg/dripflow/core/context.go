package core

type ctxKey string

const (
	CtxKeyRunnerId   ctxKey = ctxKey("runnerId")
	CtxKeyClientName ctxKey = ctxKey("clientName")
)
