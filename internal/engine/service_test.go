package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vouch/internal/anchor"
	"vouch/internal/audit"
	"vouch/internal/contentstore"
	endorsementservice "vouch/internal/endorsement/service"
	endorsementstore "vouch/internal/endorsement/store"
	"vouch/internal/identity/models"
	identityservice "vouch/internal/identity/service"
	identitystore "vouch/internal/identity/store"
	issuermodels "vouch/internal/issuer/models"
	issuerservice "vouch/internal/issuer/service"
	issuerstore "vouch/internal/issuer/store"
	"vouch/internal/scoring"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	txcontext "vouch/pkg/platform/tx"
	"vouch/pkg/requestcontext"
)

var (
	alice = id.MustHolderID("0x52908400098527886E0F7030069857D2E4169EE7")
	bob   = id.MustHolderID("0x8617E340B3D01FA5F11F306F4090FD50E238070D")
	carol = id.MustHolderID("0xde709f2102306220921060314715629080e2fb77")
	dave  = id.MustHolderID("0x27b1fdb04752bbc536007a920d24acb045561c26")
)

// countingStore counts writes and can be switched to fail.
type countingStore struct {
	contentstore.Store
	puts atomic.Int64
	fail atomic.Bool
}

func (c *countingStore) Put(ctx context.Context, blob []byte) (id.ContentHash, error) {
	if c.fail.Load() {
		return "", errors.New("ipfs gateway down")
	}
	c.puts.Add(1)
	return c.Store.Put(ctx, blob)
}

type failingLedger struct {
	*anchor.InMemoryLedger
}

func (failingLedger) Anchor(context.Context, string, id.ContentHash) (anchor.Reference, error) {
	return anchor.Reference{}, errors.New("rpc unavailable")
}

type EngineSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	content *countingStore
	ledger  *anchor.InMemoryLedger
	issuers *issuerservice.Admin
	buffer  *audit.RingBuffer
	deps    Deps
	engine  *Service
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	runner := txcontext.NewInMemoryRunner(nil, 0)
	identities := identityservice.New(identitystore.NewInMemoryStore(), runner)
	endorsements := endorsementservice.New(endorsementstore.NewInMemoryStore(), identities, runner)
	issuers := issuerstore.NewInMemoryStore()

	s.content = &countingStore{Store: contentstore.NewInMemoryStore()}
	s.ledger = anchor.NewInMemoryLedger(anchor.NewChainContext("0xaa36a7", "0x1111111111111111111111111111111111111111"))
	s.issuers = issuerservice.NewAdmin(issuers)
	s.buffer = audit.NewRingBuffer(16)
	s.deps = Deps{
		Identities:   identities,
		Endorsements: endorsements,
		Issuers:      issuerservice.New(issuers),
		Content:      s.content,
		Anchor:       s.ledger,
	}
	s.engine = New(s.deps, WithAuditPublisher(audit.NewPublisher(s.buffer)))
}

func profile(name string) models.Profile {
	return models.Profile{
		Name:      name,
		Bio:       "Builds things",
		Skills:    []string{"Go", " Solidity ", "Go"},
		Education: "BSc Computer Science",
	}
}

func (s *EngineSuite) register(holder id.HolderID, name string) *IdentityView {
	view, err := s.engine.RegisterIdentity(s.ctx, holder, profile(name))
	s.Require().NoError(err)
	return view
}

func (s *EngineSuite) endorse(from, to id.HolderID, rating int) {
	_, err := s.engine.Endorse(s.ctx, EndorseRequest{
		EndorserID: from, EndorsedID: to, Rating: rating, Message: "great collaborator",
	})
	s.Require().NoError(err)
}

func (s *EngineSuite) at(days int) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(time.Duration(days)*24*time.Hour))
}

func (s *EngineSuite) TestRegisterIdentity() {
	s.Run("stores the normalized profile and anchors it", func() {
		view := s.register(alice, "  Alice ")
		s.Equal("Alice", view.Profile.Name)
		s.Equal([]string{"Go", "Solidity"}, view.Profile.Skills)
		s.Equal(models.CredentialEducation, view.Profile.CredentialType)
		s.Equal(int64(0), view.Reputation)

		ref, err := s.ledger.Reference(s.ctx, alice.String())
		s.Require().NoError(err)
		s.Equal(view.ContentHash, ref.PayloadHash)

		got, err := s.engine.GetIdentity(s.ctx, alice)
		s.Require().NoError(err)
		s.Equal(view.ContentHash, got.ContentHash)
		s.Equal("Alice", got.Profile.Name)
	})

	s.Run("second registration conflicts", func() {
		_, err := s.engine.RegisterIdentity(s.ctx, alice, profile("Alice again"))
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})

	s.Run("invalid profile writes nothing", func() {
		before := s.content.puts.Load()
		p := profile("Bob")
		p.Skills = nil
		_, err := s.engine.RegisterIdentity(s.ctx, bob, p)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Equal(before, s.content.puts.Load())

		_, err = s.engine.GetIdentity(s.ctx, bob)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("content store outage is unavailable and creates no identity", func() {
		s.content.fail.Store(true)
		defer s.content.fail.Store(false)

		_, err := s.engine.RegisterIdentity(s.ctx, bob, profile("Bob"))
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

		_, err = s.engine.GetIdentity(s.ctx, bob)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngineSuite) TestRegisterIdentity_AnchorFailureIsNotFatal() {
	deps := s.deps
	deps.Anchor = failingLedger{s.ledger}
	eng := New(deps)

	view, err := eng.RegisterIdentity(s.ctx, carol, profile("Carol"))
	s.Require().NoError(err)
	s.Equal(carol, view.HolderID)

	summary, err := eng.Verify(s.ctx, carol, UseCaseHiring)
	s.Require().NoError(err)
	s.Nil(summary.Anchor)
}

func (s *EngineSuite) TestEndorse() {
	s.register(bob, "Bob")

	s.Run("adds rating times two and stores the message", func() {
		e, err := s.engine.Endorse(s.ctx, EndorseRequest{
			EndorserID: alice, EndorsedID: bob, Rating: 4, Message: "shipped the indexer",
		})
		s.Require().NoError(err)
		s.Equal(int64(8), e.Points)

		view, err := s.engine.GetIdentity(s.ctx, bob)
		s.Require().NoError(err)
		s.Equal(int64(8), view.Reputation)
		s.Equal(int64(1), view.EndorsementCount)

		msg, err := s.engine.EndorsementMessage(s.ctx, e)
		s.Require().NoError(err)
		s.Equal("shipped the indexer", msg.Message)
		s.Equal(alice.String(), msg.Endorser)
	})

	s.Run("self endorsement is rejected before the message is stored", func() {
		before := s.content.puts.Load()
		_, err := s.engine.Endorse(s.ctx, EndorseRequest{
			EndorserID: bob, EndorsedID: bob, Rating: 5, Message: "me",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeSelfEndorsement))
		s.Equal(before, s.content.puts.Load())
	})

	s.Run("rating out of range", func() {
		_, err := s.engine.Endorse(s.ctx, EndorseRequest{
			EndorserID: alice, EndorsedID: bob, Rating: 6, Message: "wow",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRating))
	})

	s.Run("unknown endorsed holder", func() {
		_, err := s.engine.Endorse(s.ctx, EndorseRequest{
			EndorserID: alice, EndorsedID: dave, Rating: 3, Message: "who",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownIdentity))
	})

	s.Run("listing received and given", func() {
		page, err := s.engine.ListEndorsements(s.ctx, bob, 0, 10)
		s.Require().NoError(err)
		s.Len(page.Items, 1)

		given, err := s.engine.ListGiven(s.ctx, alice)
		s.Require().NoError(err)
		s.Len(given, 1)

		got, err := s.engine.GetEndorsement(s.ctx, page.Items[0].ID)
		s.Require().NoError(err)
		s.Equal(4, got.Rating)
	})
}

func (s *EngineSuite) TestReputationDecays() {
	s.register(bob, "Bob")
	s.endorse(alice, bob, 5)
	s.endorse(carol, bob, 5)

	rep, err := s.engine.Reputation(s.ctx, bob)
	s.Require().NoError(err)
	s.Equal(int64(20), rep.TotalReputation)
	s.Equal(int64(20), rep.EffectiveReputation)
	s.Equal(int64(2), rep.Ledger.Count)
	s.InDelta(5.0, rep.Ledger.AverageRating, 0.001)

	rep, err = s.engine.Reputation(s.at(40), bob)
	s.Require().NoError(err)
	s.Equal(int64(20), rep.TotalReputation)
	s.Equal(int64(0), rep.EffectiveReputation)
	s.Equal(scoring.BadgeNew, rep.Badge)

	_, err = s.engine.Reputation(s.ctx, dave)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EngineSuite) TestSybilAndTrust() {
	s.Run("unknown holder scores zero", func() {
		sybil, err := s.engine.Sybil(s.ctx, dave)
		s.Require().NoError(err)
		s.Equal(0, sybil.Score)
		s.False(sybil.HasIdentity)

		trust, err := s.engine.Trust(s.ctx, dave)
		s.Require().NoError(err)
		s.Equal(0, trust.Score)
		s.Equal(1, trust.Percentile)
		s.Equal("Building", trust.Label)
	})

	s.Run("identity ten days old without endorsements", func() {
		s.register(alice, "Alice")
		sybil, err := s.engine.Sybil(s.at(10), alice)
		s.Require().NoError(err)
		s.Equal(34, sybil.Score)
		s.Equal("low", sybil.Level)
	})

	s.Run("old endorsed identity meets every signal", func() {
		s.register(bob, "Bob")
		s.endorse(alice, bob, 5)
		sybil, err := s.engine.Sybil(s.at(31), bob)
		s.Require().NoError(err)
		s.Equal(100, sybil.Score)
	})
}

func (s *EngineSuite) TestExportCredential() {
	institution := id.IssuerID("0x8617E340B3D01FA5F11F306F4090FD50E238070D")
	_, err := s.issuers.SetIssuer(s.ctx, institution, true, issuermodels.RoleVerifiedInstitution)
	s.Require().NoError(err)

	p := profile("Alice")
	p.IssuerAddress = institution.String()
	_, err = s.engine.RegisterIdentity(s.ctx, alice, p)
	s.Require().NoError(err)
	s.register(carol, "Carol")
	s.endorse(carol, alice, 3)

	doc, err := s.engine.ExportCredential(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(institution.String(), doc.Issuer)
	s.True(doc.IssuerStatus.Verified)
	s.Equal(string(issuermodels.RoleVerifiedInstitution), doc.IssuerStatus.Role)
	s.Equal(int64(6), doc.CredentialSubject.Reputation)
	s.True(anchor.IsTransactionHash(doc.Proof.AnchorReference.TransactionHash))
	s.Equal("Sepolia Testnet", doc.Proof.ChainContext.Network)
	s.NoError(s.engine.VerifyCredential(s.ctx, doc))

	again, err := s.engine.ExportCredential(s.at(1), alice)
	s.Require().NoError(err)
	s.Equal(doc.Proof.DocumentHash, again.Proof.DocumentHash)

	events := s.buffer.DequeueBatch(16)
	var exported int
	for _, e := range events {
		if e.Action == audit.ActionCredentialExported {
			exported++
			s.Equal(alice.String(), e.Subject)
		}
	}
	s.Equal(2, exported)

	_, err = s.engine.ExportCredential(s.ctx, dave)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EngineSuite) TestVerify() {
	s.register(bob, "Bob")
	s.endorse(alice, bob, 5)

	summary, err := s.engine.Verify(s.at(31), bob, UseCaseDAO)
	s.Require().NoError(err)
	s.Equal("Verified for DAO use-case", summary.Badge)
	s.Equal("Bob", summary.Name)
	s.True(summary.Checks.HasIdentity)
	s.True(summary.Checks.MeetsWalletAge)
	s.True(summary.Checks.HasEndorsements)
	s.Equal(int64(1), summary.Checks.EndorsementCount)
	s.False(summary.Checks.HighReputation)
	s.NotNil(summary.Anchor)
	s.Equal(issuermodels.RoleIndividual, summary.Issuer.Role)

	_, err = s.engine.Verify(s.ctx, dave, UseCaseHiring)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestParseUseCase(t *testing.T) {
	for in, want := range map[string]UseCase{"": UseCaseHiring, "Hiring": UseCaseHiring, " education ": UseCaseEducation, "dao": UseCaseDAO} {
		got, err := ParseUseCase(in)
		if err != nil || got != want {
			t.Fatalf("ParseUseCase(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseUseCase("lending"); !dErrors.HasCode(err, dErrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
