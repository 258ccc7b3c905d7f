/*
Package observability provides Prometheus metrics for arbor.

Session activity is recorded through session.LifecycleHooks, so any surface
that edits documents through a session.Manager is measured the same way.
HTTP traffic is recorded by the API middleware via ObserveRequest.
*/
package observability
