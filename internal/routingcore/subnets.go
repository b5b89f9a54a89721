package routingcore

import "github.com/pentaring/meshcore/internal/ipaddr"

// nodeSubnets partitions network/mask into five per-slot /n+3 blocks, one
// per orientation slot 1..5, modeled on routing/routing_utils.py's
// get_node_subnets: the new prefix length is the parent's plus three bits,
// and block b occupies offset b within it.
func nodeSubnets(network, mask ipaddr.Addr) (blocks map[int]ipaddr.Addr, newMask ipaddr.Addr) {
	prefixLen := mask.PrefixLen() + 3
	newMask = ipaddr.MaskFromPrefixLen(prefixLen)
	shift := 32 - prefixLen

	blocks = make(map[int]ipaddr.Addr, 5)
	for block := 1; block <= 5; block++ {
		blocks[block] = network | ipaddr.Addr(block)<<uint(shift)
	}
	return blocks, newMask
}
