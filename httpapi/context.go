package httpapi

type contextKey int

//SessionKey is the context key for the browser session of a request
const SessionKey contextKey = 0
