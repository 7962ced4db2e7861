package amountcheck

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protowire"
)

// Messages of montantmax.proto:
//
//	message LoanRequest  { double loan_amount = 1; }
//	message LoanResponse { bool allowed = 1; string message = 2; }
//	service MontantMaxService { rpc CheckLoan(LoanRequest) returns (LoanResponse); }
const (
	ServiceName     = "montantmax.MontantMaxService"
	CheckLoanMethod = "/" + ServiceName + "/CheckLoan"
)

type LoanRequest struct {
	LoanAmount float64
}

type LoanResponse struct {
	Allowed bool
	Message string
}

func (m *LoanRequest) marshal() []byte {
	var b []byte
	if m.LoanAmount != 0 {
		b = protowire.AppendTag(b, 1, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(m.LoanAmount))
	}
	return b
}

func (m *LoanRequest) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.Fixed64Type {
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			m.LoanAmount = math.Float64frombits(v)
			return n, nil
		}
		return -1, nil
	})
}

func (m *LoanResponse) marshal() []byte {
	var b []byte
	if m.Allowed {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(m.Allowed))
	}
	if m.Message != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, m.Message)
	}
	return b
}

func (m *LoanResponse) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			m.Allowed = protowire.DecodeBool(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			m.Message = v
			return n, nil
		}
		return -1, nil
	})
}

// consumeFields walks a protobuf message. field returns -1 to have the value skipped.
func consumeFields(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
		}
		b = b[n:]
	}
	return nil
}

// Codec speaks the protobuf wire format for the two messages above. Its name is
// "proto" so peers built from montantmax.proto see an ordinary protobuf call.
type Codec struct{}

func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *LoanRequest:
		return m.marshal(), nil
	case *LoanResponse:
		return m.marshal(), nil
	}
	return nil, fmt.Errorf("amountcheck codec: cannot marshal %T", v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *LoanRequest:
		*m = LoanRequest{}
		return m.unmarshal(data)
	case *LoanResponse:
		*m = LoanResponse{}
		return m.unmarshal(data)
	}
	return fmt.Errorf("amountcheck codec: cannot unmarshal into %T", v)
}

// CeilingServer is the server side of MontantMaxService.
type CeilingServer interface {
	CheckLoan(ctx context.Context, req *LoanRequest) (*LoanResponse, error)
}

// RegisterCeilingServer registers srv on s. The server must be created with
// grpc.ForceServerCodec(Codec{}).
func RegisterCeilingServer(s grpc.ServiceRegistrar, srv CeilingServer) {
	s.RegisterService(&serviceDesc, srv)
}

func checkLoanHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LoanRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CeilingServer).CheckLoan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckLoanMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CeilingServer).CheckLoan(ctx, req.(*LoanRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CeilingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckLoan", Handler: checkLoanHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "montantmax.proto",
}
