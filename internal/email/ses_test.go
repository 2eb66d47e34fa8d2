package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type recordingSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (r *recordingSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	r.inputs = append(r.inputs, params)
	if r.err != nil {
		return nil, r.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestFormatFrom(t *testing.T) {
	tests := []struct {
		address string
		name    string
		want    string
		wantErr bool
	}{
		{address: "desk@courts.test", want: "<desk@courts.test>"},
		{address: "desk@courts.test", name: "Front Desk", want: `"Front Desk" <desk@courts.test>`},
		{address: "Bookings <desk@courts.test>", want: `"Bookings" <desk@courts.test>`},
		{address: "not-an-address", wantErr: true},
	}
	for _, tc := range tests {
		got, err := formatFrom(tc.address, tc.name)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("formatFrom(%q): expected error", tc.address)
			}
			continue
		}
		if err != nil {
			t.Fatalf("formatFrom(%q): %v", tc.address, err)
		}
		if got != tc.want {
			t.Fatalf("formatFrom(%q, %q) = %q, want %q", tc.address, tc.name, got, tc.want)
		}
	}
}

func TestSESClientSendBuildsInput(t *testing.T) {
	api := &recordingSES{}
	client := &SESClient{api: api, from: "<desk@courts.test>", cfgSet: "bookings"}

	msg := BuildBookingCancellation(CancellationDetails{CourtName: "Court C", Reason: "expired"})
	if err := client.Send(context.Background(), "dana@test.com", msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(api.inputs) != 1 {
		t.Fatalf("expected 1 SES call, got %d", len(api.inputs))
	}
	in := api.inputs[0]
	if got := in.Destination.ToAddresses; len(got) != 1 || got[0] != "dana@test.com" {
		t.Fatalf("to = %v", got)
	}
	if aws.ToString(in.Content.Simple.Subject.Data) != "Booking Cancelled - Court C" {
		t.Fatalf("subject = %q", aws.ToString(in.Content.Simple.Subject.Data))
	}
	if aws.ToString(in.ConfigurationSetName) != "bookings" {
		t.Fatalf("configuration set = %q", aws.ToString(in.ConfigurationSetName))
	}
	if len(in.EmailTags) != 1 || aws.ToString(in.EmailTags[0].Value) != KindCancellation {
		t.Fatalf("tags = %+v", in.EmailTags)
	}
}

func TestSESClientSendErrors(t *testing.T) {
	var nilClient *SESClient
	if err := nilClient.Send(context.Background(), "dana@test.com", Message{}); err == nil {
		t.Fatal("nil client: expected error")
	}

	api := &recordingSES{err: errors.New("throttled")}
	client := &SESClient{api: api, from: "<desk@courts.test>"}
	if err := client.Send(context.Background(), "", Message{}); err == nil {
		t.Fatal("empty recipient: expected error")
	}
	if len(api.inputs) != 0 {
		t.Fatal("empty recipient reached SES")
	}
	err := client.Send(context.Background(), "dana@test.com", Message{Subject: "hi"})
	if err == nil || !errors.Is(err, api.err) {
		t.Fatalf("expected wrapped SES error, got %v", err)
	}
	if api.inputs[0].ConfigurationSetName != nil {
		t.Fatal("configuration set should be unset")
	}
	if aws.ToString(api.inputs[0].EmailTags[0].Value) != "other" {
		t.Fatalf("untagged kind = %q", aws.ToString(api.inputs[0].EmailTags[0].Value))
	}
}
