// Package graph holds the typed table model of the industry hierarchy: node and edge tables,
// the Collection snapshot that groups them, and the error taxonomy shared by the assembly
// packages.
//
// The hierarchy has four node types (Theme, SubIndustry, Industry, Sector) and four edge
// types linking them. Node ids (NodeID) and cluster labels (ClusterLabel) are distinct types;
// a cluster label is only meaningful inside the layer transition that produced it.
package graph
