package utils

// Origin allowed in addition to the app URL when CORS is not locked down.
const CORSLowSecurityAllowedOriginLocalhost = "http://localhost:5173"

func Ptr[T any](v T) *T {
	return &v
}

func Val[T any](p *T) T {
	if p != nil {
		return *p
	}
	var zero T
	return zero
}
