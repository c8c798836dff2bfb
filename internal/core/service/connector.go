package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
)

const tracerName = "github.com/yndnr/vaultlink-go/internal/core/service"

// ConnectorService implements the operations a dapp connector calls.
// It composes the registry, gate and issuer and is the only place that
// emits TransactionPending.
type ConnectorService struct {
	registry *SessionRegistry
	gate     *TransactionGate
	issuer   *RecoverCodeIssuer
	vaults   VaultDirectory
	users    UserDirectory
	emitter  Emitter
	tracer   trace.Tracer
}

// NewConnectorService creates a new ConnectorService. users and emitter may be nil.
func NewConnectorService(
	registry *SessionRegistry,
	gate *TransactionGate,
	issuer *RecoverCodeIssuer,
	vaults VaultDirectory,
	users UserDirectory,
	emitter Emitter,
) *ConnectorService {
	return &ConnectorService{
		registry: registry,
		gate:     gate,
		issuer:   issuer,
		vaults:   vaults,
		users:    users,
		emitter:  emitter,
		tracer:   otel.Tracer(tracerName),
	}
}

func (s *ConnectorService) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "connector."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.GetErrorCode(err))
	}
	span.End()
}

// ============================================================================
// Connect / Disconnect
// ============================================================================

// ConnectRequest contains parameters for Connect.
type ConnectRequest struct {
	VaultID     string `json:"vaultId"`
	SessionID   string `json:"sessionId"`
	Name        string `json:"name"`
	Origin      string `json:"origin"`
	UserAddress string `json:"userAddress"`
}

// Key returns the session key addressed by the request.
func (r *ConnectRequest) Key() domain.SessionKey {
	return domain.SessionKey{SessionID: r.SessionID, Origin: r.Origin}
}

// Validate checks the request once at the boundary.
func (r *ConnectRequest) Validate() error {
	if err := r.Key().Validate(); err != nil {
		return err
	}
	if r.VaultID == "" {
		return domain.ErrMissingArgument.WithDetails("vaultId is required")
	}
	if len(r.Name) > domain.MaxNameLength {
		return domain.ErrInvalidArgument.WithDetails("name exceeds 256 characters")
	}
	return nil
}

// Connect binds the vault to the session, creating it on first connect.
// An unknown user address leaves the session unowned.
func (s *ConnectorService) Connect(ctx context.Context, req *ConnectRequest) (res *BindResult, err error) {
	ctx, span := s.start(ctx, "connect",
		attribute.String("session.id", req.SessionID),
		attribute.String("session.origin", req.Origin),
	)
	defer func() { endSpan(span, err) }()

	// 1. Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Resolve vault
	vault, err := s.vaults.FindByID(ctx, req.VaultID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrVaultNotFound.WithDetails(req.VaultID)
		}
		return nil, storageError(err)
	}

	// 3. Resolve owner
	var userID string
	if req.UserAddress != "" && s.users != nil {
		user, err := s.users.FindByAddress(ctx, req.UserAddress)
		switch {
		case err == nil:
			userID = user.ID
		case !domain.IsNotFound(err):
			return nil, storageError(err)
		}
	}

	// 4. Bind
	res, err = s.registry.FindOrCreate(ctx, &BindRequest{
		Key:    req.Key(),
		Vault:  vault.Ref(),
		Name:   req.Name,
		UserID: userID,
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("session.created", res.Created),
		attribute.Bool("session.switched", res.Switched),
	)
	return res, nil
}

// Disconnect removes the session. It succeeds when the session is absent.
func (s *ConnectorService) Disconnect(ctx context.Context, key domain.SessionKey) (err error) {
	ctx, span := s.start(ctx, "disconnect", attribute.String("session.id", key.SessionID))
	defer func() { endSpan(span, err) }()

	return s.registry.Delete(ctx, key)
}

// ============================================================================
// Connector code
// ============================================================================

// ConnectorCodeRequest contains parameters for CreateConnectorCode.
type ConnectorCodeRequest struct {
	SessionID    string
	Origin       string
	VaultAddress string
	TxID         string
}

// Key returns the session key addressed by the request.
func (r *ConnectorCodeRequest) Key() domain.SessionKey {
	return domain.SessionKey{SessionID: r.SessionID, Origin: r.Origin}
}

// Validate checks the request once at the boundary.
func (r *ConnectorCodeRequest) Validate() error {
	if err := r.Key().Validate(); err != nil {
		return err
	}
	if r.VaultAddress == "" {
		return domain.ErrMissingArgument.WithDetails("vault address is required")
	}
	if r.TxID == "" {
		return domain.ErrMissingArgument.WithDetails("transaction id is required")
	}
	return nil
}

// ConnectorCode is returned to the dapp after a code was issued.
type ConnectorCode struct {
	Code      string                     `json:"code"`
	ValidAt   time.Time                  `json:"validAt"`
	TxBlocked bool                       `json:"tx_blocked"`
	Metadata  domain.RecoverCodeMetadata `json:"metadata"`
}

// CreateConnectorCode issues a recover code for a pending transaction of the
// session. TxBlocked reports whether the vault still has transactions waiting
// for signatures; issuance is not refused in that case.
func (s *ConnectorService) CreateConnectorCode(ctx context.Context, req *ConnectorCodeRequest) (out *ConnectorCode, err error) {
	ctx, span := s.start(ctx, "create_connector_code",
		attribute.String("session.id", req.SessionID),
		attribute.String("vault.address", req.VaultAddress),
	)
	defer func() { endSpan(span, err) }()

	// 1. Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Check gate
	blocked, err := s.gate.HasPendingRequirements(ctx, req.VaultAddress)
	if err != nil {
		return nil, err
	}

	// 3. Resolve session owner
	dapp, err := s.registry.FindBySessionKey(ctx, req.Key())
	if err != nil {
		return nil, err
	}

	// 4. Issue code (resolves the vault by address)
	code, err := s.issuer.Issue(ctx, &IssueCodeRequest{
		Owner:        dapp.UserID,
		VaultAddress: req.VaultAddress,
		TxID:         req.TxID,
		Origin:       req.Origin,
	})
	if err != nil {
		return nil, err
	}

	// 5. Announce
	if s.emitter != nil {
		s.emitter.Emit(ctx, domain.TransactionPending{
			Key:       req.Key(),
			Code:      code.Code,
			ValidAt:   code.ValidAt,
			TxBlocked: blocked,
			Metadata:  code.Metadata,
		})
	}

	span.SetAttributes(attribute.Bool("tx.blocked", blocked))
	return &ConnectorCode{
		Code:      code.Code,
		ValidAt:   code.ValidAt,
		TxBlocked: blocked,
		Metadata:  code.Metadata,
	}, nil
}

// LookupCode returns an unexpired code.
func (s *ConnectorService) LookupCode(ctx context.Context, code string) (rc *domain.RecoverCode, err error) {
	ctx, span := s.start(ctx, "lookup_code")
	defer func() { endSpan(span, err) }()

	return s.issuer.Lookup(ctx, code)
}

// ============================================================================
// Reads
// ============================================================================

// State reports whether the session is connected.
func (s *ConnectorService) State(ctx context.Context, key domain.SessionKey) (connected bool, err error) {
	ctx, span := s.start(ctx, "state", attribute.String("session.id", key.SessionID))
	defer func() { endSpan(span, err) }()

	return s.registry.State(ctx, key)
}

// Accounts returns the addresses of all vaults bound to the session.
func (s *ConnectorService) Accounts(ctx context.Context, key domain.SessionKey) (addrs []string, err error) {
	ctx, span := s.start(ctx, "accounts", attribute.String("session.id", key.SessionID))
	defer func() { endSpan(span, err) }()

	return s.registry.Accounts(ctx, key)
}

// CurrentAccount returns the address of the session's current vault.
func (s *ConnectorService) CurrentAccount(ctx context.Context, key domain.SessionKey) (addr string, err error) {
	ctx, span := s.start(ctx, "current_account", attribute.String("session.id", key.SessionID))
	defer func() { endSpan(span, err) }()

	dapp, err := s.registry.FindBySessionKey(ctx, key)
	if err != nil {
		return "", err
	}
	return dapp.CurrentVault.Address, nil
}

// CurrentNetwork returns the provider of the session's current vault.
func (s *ConnectorService) CurrentNetwork(ctx context.Context, key domain.SessionKey) (provider string, err error) {
	ctx, span := s.start(ctx, "current_network", attribute.String("session.id", key.SessionID))
	defer func() { endSpan(span, err) }()

	dapp, err := s.registry.FindBySessionKey(ctx, key)
	if err != nil {
		return "", err
	}

	vault, err := s.vaults.FindByID(ctx, dapp.CurrentVault.ID)
	if err != nil {
		if domain.IsNotFound(err) {
			return "", domain.ErrVaultNotFound.WithDetails(dapp.CurrentVault.ID)
		}
		return "", storageError(err)
	}
	return vault.Provider, nil
}

// Current returns the current vault id of the session located by session id
// alone. See SessionRegistry.FindCurrentVault.
func (s *ConnectorService) Current(ctx context.Context, sessionID string) (vaultID string, err error) {
	ctx, span := s.start(ctx, "current", attribute.String("session.id", sessionID))
	defer func() { endSpan(span, err) }()

	ref, err := s.registry.FindCurrentVault(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}
