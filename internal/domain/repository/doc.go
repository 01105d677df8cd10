// Package repository define las interfaces de repositorio de dominio.
//
// Los contratos son independientes del almacenamiento. Las implementaciones
// viven en internal/store/pg (PostgreSQL) e internal/store/memory (dev/tests).
//
//	┌──────────────────────────────────────────────┐
//	│  connect (Coordinator) / credentials / ops   │
//	└──────────────────────────────────────────────┘
//	                     │ Tx
//	                     ▼
//	┌──────────────────────────────────────────────┐
//	│            domain/repository                 │
//	│  ConnectSessions, Credentials, Integrations  │
//	└──────────────────────────────────────────────┘
//	           ┌─────────┴─────────┐
//	           ▼                   ▼
//	     store/pg            store/memory
//
// Convenciones:
//   - Context siempre es el primer parámetro.
//   - Las escrituras de una connect session ocurren dentro de un Tx.
//   - Errores de dominio en errors.go.
package repository
