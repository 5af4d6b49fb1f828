package calculator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSpecLocal(t *testing.T) {
	s, err := ParseSpec("sh://")
	require.NoError(t, err)
	require.Equal(t, KindLocal, s.Kind)
}

func TestParseSpecSSH(t *testing.T) {
	s, err := ParseSpec("ssh://calc@cluster.example.com:2222")
	require.NoError(t, err)
	require.Equal(t, KindSSH, s.Kind)
	require.Equal(t, "cluster.example.com", s.Host)
	require.Equal(t, 2222, s.Port)
	require.Equal(t, "calc", s.User)
}

func TestParseSpecSSHDefaultPort(t *testing.T) {
	s, err := ParseSpec("ssh://cluster.example.com")
	require.NoError(t, err)
	require.Equal(t, 22, s.Port)
}

func TestParseSpecSlurm(t *testing.T) {
	s, err := ParseSpec("slurm://head.cluster?partition=gpu&account=acct1")
	require.NoError(t, err)
	require.Equal(t, KindSlurm, s.Kind)
	require.Equal(t, "gpu", s.Partition)
	require.Equal(t, "acct1", s.Account)
}

func TestParseSpecFunz(t *testing.T) {
	s, err := ParseSpec("funz://calc.example.com:9334")
	require.NoError(t, err)
	require.Equal(t, KindFunz, s.Kind)
	require.Equal(t, 9334, s.Port)
}

func TestParseSpecCacheBareShorthand(t *testing.T) {
	s, err := ParseSpec("results_prev")
	require.NoError(t, err)
	require.Equal(t, KindCache, s.Kind)
	require.Equal(t, "results_prev", s.CachePath)
}

func TestParseSpecCacheURI(t *testing.T) {
	s, err := ParseSpec("cache:///abs/path")
	require.NoError(t, err)
	require.Equal(t, KindCache, s.Kind)
	require.Equal(t, "/abs/path", s.CachePath)
}

func TestParseSpecUnknownScheme(t *testing.T) {
	_, err := ParseSpec("ftp://host")
	require.Error(t, err)
}

func TestPoolAcquireRoundRobin(t *testing.T) {
	specA := Spec{Kind: KindCache, CachePath: "a"}
	specB := Spec{Kind: KindCache, CachePath: "b"}
	pool := New([]Adapter{NewCacheAdapter(specA), NewCacheAdapter(specB)})

	lease0, ok := pool.Acquire(0)
	require.True(t, ok)
	require.Equal(t, "cache://a", lease0.ID())

	lease1, ok := pool.Acquire(1)
	require.True(t, ok)
	require.Equal(t, "cache://b", lease1.ID())

	_, ok = pool.Acquire(0)
	require.False(t, ok, "both instances are leased")

	lease0.Release()
	lease2, ok := pool.Acquire(0)
	require.True(t, ok)
	require.Equal(t, "cache://a", lease2.ID())
}

func TestPoolAcquireExcluding(t *testing.T) {
	specA := Spec{Kind: KindCache, CachePath: "a"}
	specB := Spec{Kind: KindCache, CachePath: "b"}
	pool := New([]Adapter{NewCacheAdapter(specA), NewCacheAdapter(specB)})

	lease, ok := pool.AcquireExcluding(0, map[string]bool{"cache://a": true})
	require.True(t, ok)
	require.Equal(t, "cache://b", lease.ID())
}

func TestPoolNonCacheLen(t *testing.T) {
	pool := New([]Adapter{
		NewLocalAdapter(Spec{Kind: KindLocal}),
		NewCacheAdapter(Spec{Kind: KindCache, CachePath: "x"}),
	})
	require.Equal(t, 1, pool.NonCacheLen())
	require.Equal(t, 2, pool.Len())
}
