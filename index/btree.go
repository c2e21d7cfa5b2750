package index

import (
	"sync"

	"github.com/google/btree"

	"github.com/chengsir22/hades/data"
)

// BTree 索引，封装了 google 的 btree
type BTree struct {
	tree *btree.BTree
	lock *sync.RWMutex
}

func NewBTree(degree int) *BTree {
	return &BTree{
		tree: btree.New(degree),
		lock: new(sync.RWMutex),
	}
}

func (bt *BTree) Put(key []byte, e *data.Entry) *data.Entry {
	it := &Item{key: key, entry: e}
	bt.lock.Lock()
	oldItem := bt.tree.ReplaceOrInsert(it)
	bt.lock.Unlock()
	if oldItem == nil {
		return nil
	}
	return oldItem.(*Item).entry
}

func (bt *BTree) Get(key []byte) *data.Entry {
	it := &Item{key: key}
	bt.lock.RLock()
	defer bt.lock.RUnlock()
	btreeItem := bt.tree.Get(it)
	if btreeItem == nil {
		return nil
	}
	return btreeItem.(*Item).entry
}

func (bt *BTree) Delete(key []byte) (*data.Entry, bool) {
	it := &Item{key: key}
	bt.lock.Lock()
	oldItem := bt.tree.Delete(it)
	bt.lock.Unlock()
	if oldItem == nil {
		return nil, false
	}
	return oldItem.(*Item).entry, true
}

func (bt *BTree) Size() int {
	bt.lock.RLock()
	defer bt.lock.RUnlock()
	return bt.tree.Len()
}

func (bt *BTree) Iterator(reverse bool) Iterator {
	bt.lock.RLock()
	defer bt.lock.RUnlock()

	values := make([]*Item, 0, bt.tree.Len())
	saveValues := func(it btree.Item) bool {
		values = append(values, it.(*Item))
		return true
	}
	if reverse {
		bt.tree.Descend(saveValues)
	} else {
		bt.tree.Ascend(saveValues)
	}
	return newSliceIterator(values, reverse)
}

func (bt *BTree) Close() error {
	return nil
}
