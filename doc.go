// Package shapeseek provides content-based similarity search over 3D
// models. A mesh goes in, a compact geometric descriptor comes out, and the
// descriptor is searchable against everything ingested before it.
//
// The Manager ties the pieces together: mesh parsing and normalization
// (package mesh), descriptor extraction (package descriptor), the in-memory
// vector index (package index), the durable catalog (package catalog), raw
// model storage (package blobstore), and index snapshots (package
// persistence).
//
// Basic usage:
//
//	cat, _ := catalog.OpenSQLite("shapeseek.db")
//	blobs, _ := blobstore.NewLocal("data/models")
//	m, _ := shapeseek.New(cat, blobs,
//		shapeseek.WithSnapshotPath("data/index.snapshot"),
//	)
//	_ = m.Initialize(ctx)
//	defer m.Close()
//
//	model, _ := m.IngestMesh(ctx, "bracket.stl", "stl", file)
//	hits, _ := m.SearchMesh(ctx, "stl", queryFile, 10)
package shapeseek
