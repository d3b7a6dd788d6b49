/*
Package api provides Deckhand's HTTP surface: the JSON API for deployment
operations and one-shot metric queries, the Prometheus /metrics endpoint,
and the Server-Sent Events push channel viewers attach to for live
updates. The server is constructed with explicit service and hub
references; nothing is looked up through globals.
*/
package api
