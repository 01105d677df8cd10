// Package connect implementa la emisión de connect sessions.
//
// El flujo es lineal y transaccional:
//
//	Received → Validated → ReferencesChecked → PermissionChecked
//	         → SessionWritten → CredentialWritten → Committed
//
// Cualquier fallo (ValidationFailed, ReferenceNotFound, Forbidden,
// PersistenceFailed) revierte la transacción completa: nunca sobrevive una
// sesión sin su credencial ni una credencial sin su sesión.
//
// El Coordinator no conoce HTTP ni logging. Retorna un Result discriminado
// que la capa HTTP traduce a status; Instrumented agrega logs, métricas y
// spans alrededor.
package connect
