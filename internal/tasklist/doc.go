// Package tasklist holds the client-side task list state: the reconciled
// snapshot, the filter selection, the single edit slot, the add form and the
// live feed that keeps them current. Nothing here blocks on the store.
package tasklist
