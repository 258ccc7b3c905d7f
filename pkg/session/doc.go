/*
Package session binds a workflow document to its undo/redo history.

A Session is the single owner of one history.History[domain.Document]. Every
edit goes through the history so it can be undone, is validated before it is
committed, and is reported as changed or not. The Manager loads and saves
sessions through a ports.SessionStore and serializes access per session id,
optionally across replicas through a ports.DistributedLocker.
*/
package session
