package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	// links
	RouteLinks = RouteApiV1 + "/links"
	RouteLink  = RouteLinks + "/:link_id"

	// short public download alias kept stable for shared URLs
	RouteDownload = "/d/:link_id"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
