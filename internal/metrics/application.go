package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ApplicationMetrics tracks domain-level engagement counters
type ApplicationMetrics struct {
	// Accounts
	RegistrationsTotal prometheus.Counter
	EmailsSentTotal    *prometheus.CounterVec

	// Social engagement
	FollowsTotal   prometheus.Counter
	UnfollowsTotal prometheus.Counter
	PostsCreated   prometheus.Counter
	ReactionsTotal *prometheus.CounterVec
	Impressions    prometheus.Counter

	// Directory
	UserSearchesTotal prometheus.Counter
}

var (
	appInstance *ApplicationMetrics
	appOnce     sync.Once
)

// App returns the application metrics singleton
func App() *ApplicationMetrics {
	appOnce.Do(func() {
		appInstance = &ApplicationMetrics{
			RegistrationsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "registrations_total",
					Help: "Total number of accounts registered",
				},
			),
			EmailsSentTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "emails_sent_total",
					Help: "Total outbound emails by kind and result",
				},
				[]string{"kind", "result"},
			),
			FollowsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "follows_total",
					Help: "Total number of follows",
				},
			),
			UnfollowsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "unfollows_total",
					Help: "Total number of unfollows",
				},
			),
			PostsCreated: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "posts_created_total",
					Help: "Total number of posts created",
				},
			),
			ReactionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "post_reactions_total",
					Help: "Total post reactions by kind",
				},
				[]string{"kind"},
			),
			Impressions: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "post_impressions_total",
					Help: "Total unique post impressions recorded",
				},
			),
			UserSearchesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "user_searches_total",
					Help: "Total user directory searches",
				},
			),
		}
	})
	return appInstance
}
