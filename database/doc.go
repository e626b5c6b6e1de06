// Package database provides connection management, dialect selection,
// configuration, schema initialization, logging, and pool statistics
// built on top of Bun. It is the session-provider collaborator of the
// CRUD layer: it opens and disposes engines, the crud package only
// ever receives a session it did not create.
package database
