// Package client implements the calhub CLI client over the REST API:
// event listing, creation, update, deletion, range purge, and health.
package client
