// Package interfaces holds compile-time checks that the concrete stores,
// services and queues satisfy the narrow interfaces their consumers declare.
//
// Consumers own their interfaces: each HTTP controller, task processor and
// the inbox scheduler declares only the methods it calls (see
// internal/http/stores.go, internal/tasks and internal/scheduler). The
// implementations live in internal/database/..., internal/audit and
// internal/ingest.
//
// # Adding a New Listing Source
//
//  1. Add a SourceKind and a constructor in internal/database/query/source.go.
//
//  2. Register a builder in sourceBuilders returning a clause.Expr on
//     works.id. Builders that look at global tags must go through
//     tags.VisibleWorks so per-user overrides are honored.
//
//  3. Accept the field name in ParseField so GET /api/works/:field/:id
//     can reach it.
//
// # Adding a New Background Task
//
//  1. Declare the task type and the interface its processor needs in
//     internal/tasks, with a Config() naming the queue.
//
//  2. Register the queue in entrypoint.go and expose the type in
//     internal/http/tasks.go.
//
//  3. Add a compile-time check here.
//
//	var _ tasks.SomeDependency = (*SomeImplementation)(nil)
package interfaces
