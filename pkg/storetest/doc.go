// Package storetest holds conformance suites shared by every storage backend.
//
//	func TestStore(t *testing.T) {
//		storetest.TransitionStore(t, func(t *testing.T) transition.Store {
//			return newStore(t)
//		})
//	}
package storetest
