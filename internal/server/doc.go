// Package server exposes lineage services to editor front-ends over HTTP.
//
// Routes:
//
//	GET  /nblineage/uuid/v1/{count}        {"uuid": [...]} with count fresh identities
//	GET  /nblineage/lc/server_signature    {"signature_id": ..., "notebook_dir": ...}
//	POST /nblineage/lineage/synchronize    notebook in, synchronized notebook out
//	GET  /metrics                          Prometheus metrics
//
// Every request passes through chi's RequestID and Recoverer middleware and
// is counted in nblineage_http_requests_total by route pattern and status.
package server
