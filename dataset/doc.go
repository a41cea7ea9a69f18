// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides random-access datasets, samplers and the
// prefetching pipeline that turns them into batches.
//
// # Overview
//
// A Sampler orders dataset indices into groups. A Pipeline builds one batch
// per group on a bounded set of workers, each inside its own child of a
// parent manager, and delivers them strictly in sampler order. At most
// PrefetchNumber batches are being built or waiting at any time.
//
// # Basic Usage
//
//	ds, err := dataset.LoadCSV("train.csv", dataset.CSVOptions{HasHeader: true, Scale: 1.0 / 255})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := dataset.Sampling(32, true, false, 7)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p, err := dataset.NewPipeline(ctx, root, dataset.Dataset[[]float32, float32](ds),
//	    dataset.StackFloat32, dataset.Config{Sampler: s, PrefetchNumber: 4})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	for batch, err := range p.All(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    // use batch.Data and batch.Labels
//	    batch.Close()
//	}
//
// # Cancellation
//
// Closing the pipeline early cancels outstanding construction and releases
// every batch that was not delivered. Delivered batches belong to the
// consumer, which must Close each one.
package dataset
