package templating

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Wildcard is the token standing for a variable field in a pattern.
const Wildcard = "<*>"

// Miner implements the Drain algorithm for log template extraction.
//
// Drain groups messages into clusters by walking a parse tree of fixed
// depth: the first level splits by token count, the next levels by the
// leading tokens. At the leaf, a message joins the most similar cluster or
// starts a new one. Tokens that differ between members of a cluster become
// wildcards.
//
// Configuration:
//   - depth: Maximum tree depth (default: 4)
//   - simThreshold: Minimum similarity for joining a cluster (default: 0.4)
//   - maxChildren: Maximum children per tree node (default: 100)
type Miner struct {
	root         *treeNode
	depth        int
	simThreshold float64
	maxChildren  int
	clusters     []*Cluster // id-1 -> cluster
	mu           sync.RWMutex
}

type treeNode struct {
	children   map[string]*treeNode
	clusterIDs []int
}

func newTreeNode() *treeNode {
	return &treeNode{children: make(map[string]*treeNode)}
}

// Cluster is a group of structurally similar messages.
type Cluster struct {
	ID       int
	Pattern  string
	Tokens   []string
	Count    int
	Examples []string
}

// DrainConfig holds the Miner parameters.
type DrainConfig struct {
	Depth        int     `mapstructure:"depth"`
	SimThreshold float64 `mapstructure:"sim_threshold"`
	MaxChildren  int     `mapstructure:"max_children"`
}

// DefaultDrainConfig provides the default Miner parameters.
var DefaultDrainConfig = DrainConfig{
	Depth:        4,
	SimThreshold: 0.4,
	MaxChildren:  100,
}

const maxExamples = 3

var variableTokens = []*regexp.Regexp{
	regexp.MustCompile(`^-?\d+(\.\d+)?$`),
	regexp.MustCompile(`^0[xX][0-9a-fA-F]+$`),
	regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`),
	regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`),
}

// NewMiner creates a Miner. Zero or out of range values in cfg fall back to
// DefaultDrainConfig.
func NewMiner(cfg DrainConfig) *Miner {
	if cfg.Depth < 3 {
		cfg.Depth = DefaultDrainConfig.Depth
	}
	if cfg.SimThreshold <= 0 || cfg.SimThreshold > 1 {
		cfg.SimThreshold = DefaultDrainConfig.SimThreshold
	}
	if cfg.MaxChildren <= 0 {
		cfg.MaxChildren = DefaultDrainConfig.MaxChildren
	}
	return &Miner{
		root:         newTreeNode(),
		depth:        cfg.Depth,
		simThreshold: cfg.SimThreshold,
		maxChildren:  cfg.MaxChildren,
	}
}

// Learn adds a message to the miner and returns the id of its cluster.
// Ids start at 1. Empty messages go to cluster 0.
func (d *Miner) Learn(message string) int {
	tokens := strings.Fields(message)
	if len(tokens) == 0 {
		return 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	leaf := d.descend(tokens, true)
	c := d.bestMatch(leaf, tokens)
	if c != nil {
		c.Tokens = mergeTokens(c.Tokens, tokens)
		c.Pattern = strings.Join(c.Tokens, " ")
	} else {
		c = &Cluster{ID: len(d.clusters) + 1, Tokens: templateTokens(tokens)}
		c.Pattern = strings.Join(c.Tokens, " ")
		d.clusters = append(d.clusters, c)
		leaf.clusterIDs = append(leaf.clusterIDs, c.ID)
	}

	c.Count++
	if len(c.Examples) < maxExamples {
		c.Examples = append(c.Examples, message)
	}
	return c.ID
}

// Match returns the cluster a message belongs to without changing the
// miner. ok is false when no cluster is similar enough.
func (d *Miner) Match(message string) (Cluster, bool) {
	tokens := strings.Fields(message)
	if len(tokens) == 0 {
		return Cluster{}, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	leaf := d.descend(tokens, false)
	if leaf == nil {
		return Cluster{}, false
	}
	c := d.bestMatch(leaf, tokens)
	if c == nil {
		return Cluster{}, false
	}
	return *c, true
}

// descend walks the tree to the leaf for tokens. With create set, missing
// nodes are added; otherwise a missing node yields nil.
func (d *Miner) descend(tokens []string, create bool) *treeNode {
	node := d.root

	lengthKey := strconv.Itoa(len(tokens))
	next, ok := node.children[lengthKey]
	if !ok {
		if !create {
			return nil
		}
		next = newTreeNode()
		node.children[lengthKey] = next
	}
	node = next

	for i := 0; i < len(tokens) && i < d.depth-2; i++ {
		token := tokens[i]
		if isVariableToken(token) {
			token = Wildcard
		}

		next, ok := node.children[token]
		if !ok && !create {
			next, ok = node.children[Wildcard]
			if !ok {
				return nil
			}
		}
		if !ok {
			if len(node.children) >= d.maxChildren {
				token = Wildcard
			}
			next, ok = node.children[token]
			if !ok {
				next = newTreeNode()
				node.children[token] = next
			}
		}
		node = next
	}
	return node
}

// bestMatch returns the most similar cluster at leaf above the threshold.
func (d *Miner) bestMatch(leaf *treeNode, tokens []string) *Cluster {
	var best *Cluster
	bestSim := -1.0
	for _, id := range leaf.clusterIDs {
		c := d.clusters[id-1]
		sim := similarity(tokens, c.Tokens)
		if sim >= d.simThreshold && sim > bestSim {
			best, bestSim = c, sim
		}
	}
	return best
}

func isVariableToken(token string) bool {
	for _, re := range variableTokens {
		if re.MatchString(token) {
			return true
		}
	}
	return strings.HasPrefix(token, "/") && len(token) > 20
}

// similarity returns the share of positions where both sequences agree,
// wildcards agreeing with anything.
func similarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	matches := 0
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] == Wildcard || b[i] == Wildcard || a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(max(len(a), len(b)))
}

// mergeTokens turns every position where the sequences differ into a
// wildcard.
func mergeTokens(existing, tokens []string) []string {
	n := max(len(existing), len(tokens))
	out := make([]string, n)
	for i := range out {
		switch {
		case i >= len(existing) || i >= len(tokens):
			out[i] = Wildcard
		case existing[i] != tokens[i]:
			out[i] = Wildcard
		default:
			out[i] = existing[i]
		}
	}
	return out
}

func templateTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if isVariableToken(t) {
			out[i] = Wildcard
		} else {
			out[i] = t
		}
	}
	return out
}

// Clusters returns copies of all clusters sorted by count, most frequent
// first. Ties keep id order.
func (d *Miner) Clusters() []Cluster {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Cluster, len(d.clusters))
	for i, c := range d.clusters {
		out[i] = *c
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Cluster returns the cluster with the given id.
func (d *Miner) Cluster(id int) (Cluster, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if id < 1 || id > len(d.clusters) {
		return Cluster{}, false
	}
	return *d.clusters[id-1], true
}

// Len returns the number of clusters.
func (d *Miner) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.clusters)
}

// Reset removes every cluster.
func (d *Miner) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.root = newTreeNode()
	d.clusters = nil
}
