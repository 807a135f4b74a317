package store

import (
	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/models"
)

// MuteState maps stream then topic to the user's visibility policy.
// Topics with the default policy are absent: the dominant case is "no
// override", so the map stays sparse.
type MuteState map[models.StreamID]map[string]models.VisibilityPolicy

// NewMuteState returns the empty policy map.
func NewMuteState() MuteState {
	return MuteState{}
}

// ReduceMute applies one action to the policy map.
func ReduceMute(s MuteState, a action.Action) MuteState {
	switch a := a.(type) {
	case action.RegisterComplete:
		return muteFromRegister(a.Data)
	case action.EventUserTopic:
		return muteSetPolicy(s, a.StreamID, a.Topic, a.Policy)
	case action.EventMutedTopics:
		return muteFromTopics(a.MutedTopics)
	case action.ResetAccountData, action.Logout, action.LoginSuccess, action.AccountSwitch:
		return NewMuteState()
	default:
		return s
	}
}

// Policy returns the effective visibility policy for a topic; absent
// entries mean the default policy.
func (s MuteState) Policy(streamID models.StreamID, topic string) models.VisibilityPolicy {
	return s[streamID][topic]
}

// IsMuted reports whether the topic is muted.
func (s MuteState) IsMuted(streamID models.StreamID, topic string) bool {
	return s.Policy(streamID, topic) == models.VisibilityPolicyMuted
}

// muteFromRegister prefers the modern user_topics section; old servers
// send only muted_topics pairs, which map to the muted policy.
func muteFromRegister(data action.RegisterData) MuteState {
	if len(data.UserTopics) > 0 {
		out := NewMuteState()
		for _, ut := range data.UserTopics {
			if ut.Policy == models.VisibilityPolicyNone || !ut.Policy.Valid() {
				continue
			}
			topics := out[ut.StreamID]
			if topics == nil {
				topics = make(map[string]models.VisibilityPolicy)
				out[ut.StreamID] = topics
			}
			topics[ut.Topic] = ut.Policy
		}
		return out
	}
	muted := make([]action.MutedTopic, len(data.MutedTopics))
	copy(muted, data.MutedTopics)
	return muteFromTopics(muted)
}

func muteFromTopics(muted []action.MutedTopic) MuteState {
	out := NewMuteState()
	for _, mt := range muted {
		topics := out[mt.StreamID]
		if topics == nil {
			topics = make(map[string]models.VisibilityPolicy)
			out[mt.StreamID] = topics
		}
		topics[mt.Topic] = models.VisibilityPolicyMuted
	}
	return out
}

func muteSetPolicy(s MuteState, streamID models.StreamID, topic string, policy models.VisibilityPolicy) MuteState {
	if policy == models.VisibilityPolicyNone {
		if _, ok := s[streamID][topic]; !ok {
			return s
		}
	} else if s[streamID][topic] == policy {
		return s
	}

	out := make(MuteState, len(s)+1)
	for id, topics := range s {
		t := make(map[string]models.VisibilityPolicy, len(topics))
		for k, v := range topics {
			t[k] = v
		}
		out[id] = t
	}
	if policy == models.VisibilityPolicyNone {
		delete(out[streamID], topic)
		if len(out[streamID]) == 0 {
			delete(out, streamID)
		}
		return out
	}
	topics := out[streamID]
	if topics == nil {
		topics = make(map[string]models.VisibilityPolicy)
		out[streamID] = topics
	}
	topics[topic] = policy
	return out
}
