// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import "errors"

var (
	ErrInvalidTimeRange  = errors.New("start must be before end")
	ErrNoTickers         = errors.New("no tickers requested")
	ErrMalformedCSV      = errors.New("malformed returns file")
	ErrInvalidStatusCode = errors.New("http request returned invalid status code")
	ErrNoObservations    = errors.New("no return observations in range")
)
