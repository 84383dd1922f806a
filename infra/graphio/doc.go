// Package graphio loads road graphs into a graph.Store.
//
// Two sources are supported: the nodes.json/graph.json pair
//
//	nodes.json  {"<id>": [lat, lon], ...}
//	graph.json  {"<id>": [["<neighbor>", cost], ...], ...}
//
// and OpenStreetMap XML extracts, from which only ways tagged highway are
// kept. WriteJSON produces the JSON pair from any store.
package graphio
