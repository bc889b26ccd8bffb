// package repositories provides persistence for durable client state.
//
// The backend remains the source of truth for all catalog data; the local
// sqlite database only mirrors the session credentials so a restarted
// client can rehydrate without logging in again.
package repositories
