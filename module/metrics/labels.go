package metrics

const (
	namespaceCollector = "collector"
	namespaceHub       = "hub"
)

const (
	subsystemPoller    = "poller"
	subsystemPublisher = "publisher"
	subsystemIngress   = "ingress"
	subsystemViewers   = "viewers"
	subsystemSnapshot  = "snapshot"
)

const (
	LabelResult    = "result"
	LabelCall      = "call"
	LabelTarget    = "target"
	LabelTransport = "transport"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

const (
	TransportWebsocket = "websocket"
	TransportHTTP      = "http"
)
