package metrics

const (
	// LabelMethod is the Prometheus label name for HTTP method.
	LabelMethod = "method"

	// LabelStatusCode is the Prometheus label name for HTTP status codes.
	LabelStatusCode = "code"

	// LabelStatus is the Prometheus label name for the status of a process
	// such as "success" or "error".
	LabelStatus = "status"

	// LabelDomain is the Prometheus label name for the curator domain
	// (indices, snapshots, or cluster).
	LabelDomain = "domain"

	// LabelCommand is the Prometheus label name for a canonical curator command.
	LabelCommand = "command"

	// LabelFilter is the Prometheus label name for a filter type.
	LabelFilter = "filter"

	// LabelEvent is used by InstrumentHTTP() to describe the different stages of
	// an HTTP connection (DNS resolution, TLS handshake, etc).
	LabelEvent = "event"
)

// Status returns the LabelStatus value for err.
func Status(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}
