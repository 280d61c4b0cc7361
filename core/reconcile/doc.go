// Package reconcile provides the plan/apply machinery used to bring the
// catalog in line with an incoming batch of records.
//
// # Architecture
//
// The package consists of three parts:
//
// 1. Plan: an ordered list of Actions (create manufacturer, create product,
//    create or update company) plus the errors found while planning. Domain
//    packages build plans; this package never inspects payloads.
//
// 2. Apply: ApplyPlan hands the actions, grouped so that referenced entities
//    are written first, to a Mutator. When the Mutator also implements
//    BatchMutator the whole list is written in one call (the catalog
//    repository uses a single database transaction).
//
// 3. Cache: a TTL cache with singleflight stampede protection, used to keep
//    the catalog snapshot that planning reads from.
//
// # Usage Example
//
//	snapshots := reconcile.NewCache[*catalog.Snapshot](30 * time.Second)
//	snap, err := snapshots.Get(ctx, "catalog", repo.LoadSnapshot)
//
//	plan := reconcile.NewPlan()
//	plan.Add(reconcile.Action{Type: reconcile.ActionCreateManufacturer, Key: "559", Payload: m})
//	executed, err := reconcile.ApplyPlan(ctx, repo, plan, reconcile.Options{})
package reconcile
