package airports

import (
	"sort"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
)

// Clusters groups the network's airports into connected components of the
// qualifying-edge graph: two airports land in the same cluster when a chain
// of within-radius hops links them. Each cluster is sorted by code and the
// cluster list is ordered by its first code, so the output is reproducible
// regardless of map iteration order.
func Clusters(network Network) ([][]string, error) {
	graph := core.NewGraph()
	for code, entry := range network {
		if err := graph.AddVertex(code); err != nil {
			return nil, err
		}
		for _, neighbor := range entry.NearbyAirports {
			// Both directions exist in the network; the undirected graph
			// needs each pair once.
			if code < neighbor.IATA {
				if _, err := graph.AddEdge(code, neighbor.IATA, 0); err != nil {
					return nil, err
				}
			}
		}
	}

	visited := make(map[string]bool, len(network))
	var clusters [][]string
	for _, code := range graph.Vertices() {
		if visited[code] {
			continue
		}
		res, err := bfs.BFS(graph, code)
		if err != nil {
			return nil, err
		}
		cluster := make([]string, 0, len(res.Order))
		for _, id := range res.Order {
			visited[id] = true
			cluster = append(cluster, id)
		}
		sort.Strings(cluster)
		clusters = append(clusters, cluster)
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i][0] < clusters[j][0]
	})
	return clusters, nil
}
