// Package model defines composition templates, proof components, aggregation
// strategies, retry policies and the engine error taxonomy.
package model
