// Package remote connects the configuration manager to a remote document
// store. A credentials file names the backend (vault, redis, http, firebase,
// firebase_rtdb or postgres) and carries its connection settings. A Firebase
// service-account key file is accepted directly and selects Firestore. Every
// backend returns the stored configuration as a JSON object.
package remote
