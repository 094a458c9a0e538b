// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package trie

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/s1na/eth-witness/witness"
)

var (
	buildTimer      = metrics.NewRegisteredResettingTimer("trie/witness/build/time", nil)
	buildNodesMeter = metrics.NewRegisteredMeter("trie/witness/build/nodes", nil)
	buildBytesMeter = metrics.NewRegisteredMeter("trie/witness/build/bytes", nil)
)

// 重建过程是一次后序遍历：子节点先被重建并折叠为引用（嵌入或哈希），父节点再据此编码。
// 写入存储必须在返回哈希引用之前完成，因此调用方拿到根时，所有可达的非嵌入节点都已持久化。

// Domain tells how the leaves of a trie are interpreted.
// Domain 决定叶子节点如何被解释。
type Domain uint8

const (
	// AccountDomain is the state trie: leaf keys are addresses hashed with
	// keccak256 and leaf values are account records.
	AccountDomain Domain = iota

	// StorageDomain is a contract storage trie: leaf keys are used literally
	// and leaf values are RLP encoded slot values.
	StorageDomain
)

func (d Domain) String() string {
	switch d {
	case AccountDomain:
		return "account"
	case StorageDomain:
		return "storage"
	default:
		return fmt.Sprintf("Domain(%d)", uint8(d))
	}
}

// NodeWriter is the write side of a content addressed node store. Put must be
// idempotent: writing the same hash twice is not an error.
//
// NodeWriter 是内容寻址节点存储的写接口，Put 必须是幂等的。
type NodeWriter interface {
	Put(hash common.Hash, blob []byte) error
}

// Config contains the settings of a Builder.
// Config 包含 Builder 的设置。
type Config struct {
	StoreCode bool       // Also write contract code, keyed by its hash 同时写入合约代码（以代码哈希为键）
	Tracer    *Tracer    // Optional hooks observing the reconstruction 可选的重建观察钩子
	Logger    log.Logger // Logger for trace output, the root logger if nil 跟踪日志输出，为 nil 时使用根日志
}

// Defaults is the default Builder setting.
var Defaults = &Config{
	StoreCode: false,
}

// Stats counts what a reconstruction did.
// Stats 统计一次重建的工作量。
type Stats struct {
	Nodes    int // Nodes written to the store 写入存储的节点数
	Bytes    int // Total size of the written nodes 写入节点的总大小
	Embedded int // Nodes inlined into their parent 嵌入父节点的节点数
	Leaves   int // Account, storage and exclusion leaves 叶子节点数
	HashRefs int // Pruned subtrees referenced by hash 以哈希引用的裁剪子树数
	Code     int // Contract code blobs written 写入的合约代码数
}

// Result is the outcome of a successful reconstruction.
// Result 是一次成功重建的结果。
type Result struct {
	root  node
	stats Stats
}

// Root returns the root node: a hash reference when the root was stored, the
// root itself when the whole trie is small enough to embed, nil when the
// witness describes the empty trie.
//
// Root 返回根节点：根已存储时为哈希引用，整棵 trie 足够小时为根节点本身，空 trie 时为 nil。
func (r *Result) Root() Node {
	if r.root == nil {
		return nil
	}
	return r.root.(Node)
}

// Hash returns the root hash of the rebuilt trie. An embedded root is hashed
// as well, the root of a trie is always referenced by hash.
// Hash 返回重建 trie 的根哈希。嵌入的根同样会被哈希。
func (r *Result) Hash() common.Hash {
	switch n := r.root.(type) {
	case nil:
		return types.EmptyRootHash
	case hashNode:
		return common.BytesToHash(n)
	default:
		h := newHasher()
		defer returnHasherToPool(h)
		n.encode(h.encbuf)
		return common.BytesToHash(h.hashData(h.encodedBytes()))
	}
}

// Embedded reports whether the root was not written to the store because its
// encoding is shorter than 32 bytes.
func (r *Result) Embedded() bool {
	switch r.root.(type) {
	case nil, hashNode:
		return false
	default:
		return true
	}
}

// Stats returns the counters collected during the reconstruction.
func (r *Result) Stats() Stats {
	return r.stats
}

// Builder rebuilds trie nodes from a witness and writes every node that is
// not embedded into its parent to the node store.
//
// A Builder is not safe for concurrent use; the store it writes to may be
// shared between builders.
//
// Builder 根据见证重建 trie 节点，并将所有未嵌入父节点的节点写入节点存储。
// Builder 不能并发使用，但多个 Builder 可以共享同一个存储。
type Builder struct {
	db     NodeWriter
	config *Config
	logger log.Logger
	stats  Stats
}

// NewBuilder returns a Builder writing to db. A nil config means Defaults.
func NewBuilder(db NodeWriter, config *Config) *Builder {
	if config == nil {
		config = Defaults
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New("module", "trie")
	}
	return &Builder{
		db:     db,
		config: config,
		logger: logger,
	}
}

// Build rebuilds the state trie described by w, starting at the root in the
// account domain.
//
// Build 从根开始，在账户域中重建 w 描述的状态 trie。
func (b *Builder) Build(w witness.Node) (*Result, error) {
	return b.run(w, AccountDomain)
}

// BuildStorage rebuilds a contract storage trie described by w.
// BuildStorage 重建 w 描述的合约存储 trie。
func (b *Builder) BuildStorage(w witness.Node) (*Result, error) {
	return b.run(w, StorageDomain)
}

func (b *Builder) run(w witness.Node, domain Domain) (*Result, error) {
	start := time.Now()
	defer buildTimer.UpdateSince(start)

	b.stats = Stats{}
	root, err := b.build(w, nil, domain)
	if err != nil {
		return nil, err
	}
	res := &Result{root: root, stats: b.stats}

	buildNodesMeter.Mark(int64(b.stats.Nodes))
	buildBytesMeter.Mark(int64(b.stats.Bytes))
	b.logger.Debug("Rebuilt trie from witness", "domain", domain, "root", res.Hash(), "embedded", res.Embedded(),
		"nodes", b.stats.Nodes, "bytes", common.StorageSize(b.stats.Bytes), "leaves", b.stats.Leaves,
		"elapsed", common.PrettyDuration(time.Since(start)))
	return res, nil
}

// build rebuilds the witness node found at the given nibble path. The result
// is nil (empty), a hashNode (stored or pruned) or an embedded node.
func (b *Builder) build(w witness.Node, path []byte, domain Domain) (node, error) {
	n, err := b.buildNode(w, path, domain)
	if err != nil {
		return nil, wrapBuildError(err, path)
	}
	return n, nil
}

func (b *Builder) buildNode(w witness.Node, path []byte, domain Domain) (node, error) {
	switch w := w.(type) {
	case nil, *witness.EmptyNode:
		return nil, nil

	case *witness.HashNode:
		b.stats.HashRefs++
		return hashNode(w.Hash.Bytes()), nil

	case *witness.BranchNode:
		n := new(fullNode)
		for i, child := range w.Children {
			childPath := appendNibbles(path, byte(i))
			cn, err := b.build(child, childPath, domain)
			if err != nil {
				return nil, err
			}
			if err := checkChild(cn); err != nil {
				return nil, wrapBuildError(err, childPath)
			}
			n.Children[i] = cn
		}
		return b.commit(n, path)

	case *witness.ExtensionNode:
		if len(w.Nibbles) == 0 {
			return nil, fmt.Errorf("%w: extension with empty path", ErrMalformedWitness)
		}
		cn, err := b.build(w.Child, appendNibbles(path, w.Nibbles...), domain)
		if err != nil {
			return nil, err
		}
		switch cn.(type) {
		case hashNode:
		case nil:
			return nil, fmt.Errorf("%w: extension without child", ErrMalformedWitness)
		default:
			return nil, fmt.Errorf("%w: %s child embedded below extension", ErrUnsupportedNesting, cn.(Node).Kind())
		}
		return b.commit(&shortNode{Key: copyNibbles(w.Nibbles), Val: cn}, path)

	case *witness.LeafNode:
		if domain == AccountDomain {
			return b.accountLeaf(w, path)
		}
		return b.storageLeaf(w, path)

	case *witness.ExclusionLeafNode:
		return b.exclusionLeaf(w, path, domain)

	default:
		return nil, fmt.Errorf("%w: unexpected witness node %T", ErrMalformedWitness, w)
	}
}

// checkChild verifies that a rebuilt node may be placed into a branch slot.
func checkChild(n node) error {
	switch n := n.(type) {
	case nil, hashNode:
		return nil
	case *fullNode, *shortNode:
		if !n.(Node).Embeddable() {
			return fmt.Errorf("%w: oversized embedded %s", ErrInvalidChild, n.(Node).Kind())
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrInvalidChild, n)
	}
}

// accountLeaf rebuilds a leaf of the state trie. The fields following the
// address are either (nonce, balance) or (nonce, balance, code, storage).
//
// accountLeaf 重建状态 trie 的叶子。地址之后的字段为 (nonce, balance) 或
// (nonce, balance, code, storage)。
func (b *Builder) accountLeaf(w *witness.LeafNode, path []byte) (node, error) {
	if arity := w.Arity(); arity != 3 && arity != 5 {
		return nil, fmt.Errorf("%w: account leaf with %d fields, want 3 or 5", ErrInvalidLeafArity, arity)
	}
	addr, err := witness.ParseBytes(w.Key)
	if err != nil {
		return nil, err
	}
	if len(addr) != common.AddressLength {
		return nil, fmt.Errorf("%w: account key %q has %d bytes, want %d", ErrMalformedWitness, w.Key, len(addr), common.AddressLength)
	}
	address := common.BytesToAddress(addr)
	rest, err := keyRemainder(ToNibbles(crypto.Keccak256(addr)), path)
	if err != nil {
		return nil, err
	}
	nonce, err := witness.ParseUint64(w.Fields[0])
	if err != nil {
		return nil, err
	}
	balance, err := witness.ParseUint256(w.Fields[1])
	if err != nil {
		return nil, err
	}
	root, codeHash := types.EmptyRootHash, types.EmptyCodeHash
	if w.Arity() == 5 {
		if codeHash, err = b.code(w.Fields[2]); err != nil {
			return nil, err
		}
		if root, err = b.storageRoot(w.Fields[3]); err != nil {
			return nil, storageError(err, address, path)
		}
		b.config.Tracer.storageRoot(address, root)
	}
	value, err := EncodeAccount(nonce, balance, root, codeHash)
	if err != nil {
		return nil, err
	}
	return b.leaf(AccountDomain, path, rest, value)
}

// code hashes the contract code of an account leaf and, if configured, writes
// it to the store under that hash.
func (b *Builder) code(v interface{}) (common.Hash, error) {
	code, err := witness.ParseBytes(v)
	if err != nil {
		return common.Hash{}, err
	}
	if len(code) == 0 {
		return types.EmptyCodeHash, nil
	}
	hash := crypto.Keccak256Hash(code)
	if b.config.StoreCode {
		if err := b.db.Put(hash, code); err != nil {
			return common.Hash{}, fmt.Errorf("%w: %w", ErrIO, err)
		}
		b.stats.Code++
	}
	return hash, nil
}

// storageRoot rebuilds the nested storage witness of an account leaf. The
// storage trie must collapse into a hash, an empty witness stands for the
// empty storage trie.
//
// storageRoot 重建账户叶子中嵌套的存储见证，结果必须折叠为哈希；空见证表示空存储 trie。
func (b *Builder) storageRoot(v interface{}) (common.Hash, error) {
	nested, ok := v.(witness.Node)
	if !ok {
		var err error
		if nested, err = witness.Decode(v); err != nil {
			return common.Hash{}, err
		}
	}
	root, err := b.build(nested, nil, StorageDomain)
	if err != nil {
		return common.Hash{}, err
	}
	switch root := root.(type) {
	case nil:
		return types.EmptyRootHash, nil
	case hashNode:
		return common.BytesToHash(root), nil
	default:
		return common.Hash{}, fmt.Errorf("%w: storage root is an embedded %s", ErrExpectedHashRoot, root.(Node).Kind())
	}
}

// storageLeaf rebuilds a leaf of a storage trie from (key, value). The slot
// key is used literally, it is not hashed, and must hold whole bytes.
func (b *Builder) storageLeaf(w *witness.LeafNode, path []byte) (node, error) {
	if arity := w.Arity(); arity != 2 {
		return nil, fmt.Errorf("%w: storage leaf with %d fields, want 2", ErrInvalidLeafArity, arity)
	}
	key, err := witness.ParseNibbles(w.Key)
	if err != nil {
		return nil, err
	}
	if len(key)%2 != 0 {
		return nil, fmt.Errorf("%w: storage key %q has odd length", ErrMalformedWitness, w.Key)
	}
	rest, err := keyRemainder(key, path)
	if err != nil {
		return nil, err
	}
	value, err := storageValue(w.Fields[0])
	if err != nil {
		return nil, err
	}
	return b.leaf(StorageDomain, path, rest, value)
}

// exclusionLeaf rebuilds the neighbour leaf of an exclusion proof. Its key is
// the literal remaining path and account fields are taken as final values:
// (nonce, balance) or (nonce, balance, storageRoot, codeHash).
//
// Keys travel as whole bytes, so the remaining path always has even length.
// An exclusion leaf at odd depth (for instance right below the root branch,
// where 63 nibbles remain) cannot be expressed and is rejected.
//
// exclusionLeaf 重建排除证明中的相邻叶子，其键即字面剩余路径，账户字段直接作为最终值。
// 键以整字节传输，剩余路径长度总为偶数，因此位于奇数深度的排除叶子无法表示，会被拒绝。
func (b *Builder) exclusionLeaf(w *witness.ExclusionLeafNode, path []byte, domain Domain) (node, error) {
	if len(w.Nibbles)%2 != 0 {
		return nil, fmt.Errorf("%w: exclusion leaf key %q has odd length", ErrMalformedWitness, w.Key)
	}
	if domain == StorageDomain {
		if arity := w.Arity(); arity != 2 {
			return nil, fmt.Errorf("%w: storage exclusion leaf with %d fields, want 2", ErrInvalidLeafArity, arity)
		}
		value, err := storageValue(w.Fields[0])
		if err != nil {
			return nil, err
		}
		return b.leaf(StorageDomain, path, w.Nibbles, value)
	}
	arity := w.Arity()
	if arity != 3 && arity != 5 {
		return nil, fmt.Errorf("%w: account exclusion leaf with %d fields, want 3 or 5", ErrInvalidLeafArity, arity)
	}
	nonce, err := witness.ParseUint64(w.Fields[0])
	if err != nil {
		return nil, err
	}
	balance, err := witness.ParseUint256(w.Fields[1])
	if err != nil {
		return nil, err
	}
	root, codeHash := types.EmptyRootHash, types.EmptyCodeHash
	if arity == 5 {
		if root, err = witness.ParseHash(w.Fields[2]); err != nil {
			return nil, err
		}
		if codeHash, err = witness.ParseHash(w.Fields[3]); err != nil {
			return nil, err
		}
	}
	value, err := EncodeAccount(nonce, balance, root, codeHash)
	if err != nil {
		return nil, err
	}
	return b.leaf(AccountDomain, path, w.Nibbles, value)
}

// leaf assembles a leaf node holding value below path, keyed by the remaining
// nibbles rest.
func (b *Builder) leaf(domain Domain, path, rest, value []byte) (node, error) {
	b.stats.Leaves++
	if b.config.Tracer != nil {
		b.config.Tracer.leaf(domain, appendNibbles(path, rest...), value)
	}
	return b.commit(&shortNode{Key: leafKey(rest), Val: valueNode(value)}, path)
}

// commit collapses a freshly built node. Embedded nodes are handed back to the
// parent; all others are written to the store and replaced by their hash.
//
// commit 折叠新构建的节点：可嵌入的节点返回给父节点，其余节点写入存储并以哈希替代。
func (b *Builder) commit(n node, path []byte) (node, error) {
	h := newHasher()
	defer returnHasherToPool(h)

	ref, blob := h.collapse(n)
	hn, ok := ref.(hashNode)
	if !ok {
		b.stats.Embedded++
		b.config.Tracer.node(path, n.(Node).Kind(), common.Hash{}, len(blob), false)
		return ref, nil
	}
	hash := common.BytesToHash(hn)
	if err := b.db.Put(hash, blob); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	b.stats.Nodes++
	b.stats.Bytes += len(blob)
	b.logger.Trace("Stored trie node", "path", fmt.Sprintf("%x", path), "kind", n.(Node).Kind(), "hash", hash, "size", len(blob))
	b.config.Tracer.node(path, n.(Node).Kind(), hash, len(blob), true)
	return hn, nil
}

// keyRemainder returns the part of the full key nibbles below the node path.
func keyRemainder(key, path []byte) ([]byte, error) {
	if len(path) > len(key) {
		return nil, fmt.Errorf("%w: leaf at depth %d exceeds key length %d", ErrMalformedWitness, len(path), len(key))
	}
	return key[len(path):], nil
}

// storageValue turns a witness slot value into the leaf payload: the value
// with leading zero bytes removed, encoded as an RLP string.
//
// storageValue 将见证中的存储槽值转换为叶子负载：去掉前导零字节后编码为 RLP 字符串。
func storageValue(v interface{}) ([]byte, error) {
	raw, err := witness.ParseBytes(v)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(common.TrimLeftZeroes(raw))
}

// Reconstruct rebuilds the state trie described by w into db and checks the
// result against the expected root hash.
//
// Reconstruct 将 w 描述的状态 trie 重建到 db 中，并与期望的根哈希比较。
func Reconstruct(db NodeWriter, w witness.Node, expected common.Hash, config *Config) (*Result, error) {
	res, err := NewBuilder(db, config).Build(w)
	if err != nil {
		return nil, err
	}
	if have := res.Hash(); have != expected {
		return nil, fmt.Errorf("%w: have %x, want %x", ErrRootMismatch, have, expected)
	}
	return res, nil
}
