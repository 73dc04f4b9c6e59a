/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package control decodes data reported by ntpd control queries.

It knows how to split the system status word into event, leap indicator and
synchronization source, as described in http://doc.ntp.org/current-stable/decode.html#sys,
and how to normalize k=v variable lists printed by 'ntpq -c rv'.
*/
package control
