package api

import "testing"

func validAlert() Alert {
	return Alert{
		Candid:    1001,
		OID:       "ZTF21aaaaaaa",
		MJD:       59000.25,
		FID:       1,
		RA:        151.25,
		Dec:       2.2,
		MagPSF:    18.6,
		SigmaPSF:  0.08,
		RB:        0.92,
		IsDiffPos: 1,
	}
}

func TestAlertValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Alert)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(*Alert) {},
		},
		{
			name:   "negative diff flag allowed",
			mutate: func(a *Alert) { a.IsDiffPos = -1 },
		},
		{
			name:    "zero candid",
			mutate:  func(a *Alert) { a.Candid = 0 },
			wantErr: true,
		},
		{
			name:    "missing oid",
			mutate:  func(a *Alert) { a.OID = "" },
			wantErr: true,
		},
		{
			name:    "zero mjd",
			mutate:  func(a *Alert) { a.MJD = 0 },
			wantErr: true,
		},
		{
			name:    "ra too large",
			mutate:  func(a *Alert) { a.RA = 360 },
			wantErr: true,
		},
		{
			name:    "dec below pole",
			mutate:  func(a *Alert) { a.Dec = -90.5 },
			wantErr: true,
		},
		{
			name:    "bad isdiffpos",
			mutate:  func(a *Alert) { a.IsDiffPos = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := validAlert()
			tt.mutate(&alert)

			err := alert.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
